package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/models"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AssignmentClient applies one assignment task against the stock service.
// Each invocation may fail independently.
type AssignmentClient interface {
	Assign(ctx context.Context, venueId string, task models.AssignmentTask) error
}

// AssignmentRunStatus is the poll-able state of one dispatch, kept in Redis
// under AssignmentRun:<id> so the console can follow along chunk by chunk.
type AssignmentRunStatus struct {
	RunId    string            `json:"run_id"`
	VenueId  string            `json:"venue_id"`
	Done     bool              `json:"done"`
	Progress ExecutionProgress `json:"progress"`
	Summary  *RunSummary       `json:"summary,omitempty"`
}

// ExecuteAssignmentPlan gates the plan behind validation, expands it into
// tasks and dispatches them in bounded chunks. Per-task failures never abort
// the run; the summary carries counts plus a bounded error sample.
//
// Dispatch is serialized per venue. Once dispatch begins it runs to
// completion over all chunks; the only cancellation point is before this
// call.
func ExecuteAssignmentPlan(ctx context.Context, logger *logrus.Logger, session *PlanningSession, client AssignmentClient, chunkSize int) (string, RunSummary, error) {
	if failures := session.ValidatePlan(); len(failures) > 0 {
		return "", RunSummary{}, ValidationError(failures)
	}
	tasks, err := session.ExpandTasks()
	if err != nil {
		return "", RunSummary{}, err
	}

	lock, err := AcquireDispatchLock(ctx, session.VenueId)
	if err != nil {
		return "", RunSummary{}, err
	}
	defer ReleaseDispatchLock(ctx, lock)

	runId := uuid.NewString()
	status := AssignmentRunStatus{
		RunId:    runId,
		VenueId:  session.VenueId,
		Progress: ExecutionProgress{Total: len(tasks)},
	}
	_ = config.SetRedisObject(utils.AssignmentRunKey(runId), status, utils.GetCacheLifespan())

	dispatcher := &BoundedDispatcher[models.AssignmentTask]{
		ChunkSize: chunkSize,
		Logger:    logger,
		Op: func(ctx context.Context, task models.AssignmentTask) error {
			return client.Assign(ctx, session.VenueId, task)
		},
		Describe: func(task models.AssignmentTask) string {
			return task.BarName + " / " + task.ProductName
		},
		OnProgress: func(progress ExecutionProgress) {
			status.Progress = progress
			_ = config.SetRedisObject(utils.AssignmentRunKey(runId), status, utils.GetCacheLifespan())
		},
	}

	summary := dispatcher.Run(ctx, tasks)

	status.Done = true
	status.Summary = &summary
	_ = config.SetRedisObject(utils.AssignmentRunKey(runId), status, utils.GetCacheLifespan())

	return runId, summary, nil
}

// GetAssignmentRun loads a run's current status for polling. ok is false
// when the run id is unknown or expired.
func GetAssignmentRun(runId string) (*AssignmentRunStatus, bool) {
	var status AssignmentRunStatus
	exists, err := config.GetRedisObject(utils.AssignmentRunKey(runId), &status)
	if err != nil || !exists {
		return nil, false
	}
	return &status, true
}
