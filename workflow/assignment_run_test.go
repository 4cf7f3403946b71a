package workflow

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"bitbucket.org/mmdatafocus/venue_backend/models"
)

type fakeAssignmentClient struct {
	applied int64
	failOn  func(task models.AssignmentTask) error
}

func (f *fakeAssignmentClient) Assign(_ context.Context, _ string, task models.AssignmentTask) error {
	if f.failOn != nil {
		if err := f.failOn(task); err != nil {
			return err
		}
	}
	atomic.AddInt64(&f.applied, 1)
	return nil
}

func TestAssignmentPlan_ValidationGatesDispatch(t *testing.T) {
	s, _ := vodkaSession(t, 2)
	client := &fakeAssignmentClient{}

	_, _, err := ExecuteAssignmentPlan(context.Background(), nil, s, client, DefaultChunkSize)

	if err == nil || !strings.Contains(err.Error(), "per-destination quantity is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if client.applied != 0 {
		t.Fatal("invalid plan must not dispatch")
	}
}

func TestAssignmentPlan_HappyPath(t *testing.T) {
	s, group := vodkaSession(t, 2)
	s.SetGroupQuantity(group.Key, "8")
	client := &fakeAssignmentClient{}

	runId, summary, err := ExecuteAssignmentPlan(context.Background(), nil, s, client, DefaultChunkSize)
	if err != nil {
		t.Fatal(err)
	}

	if runId == "" {
		t.Fatal("expected a run id")
	}
	// Two contributing slots times two bars.
	if summary.Success != 4 || summary.Errors != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if client.applied != 4 {
		t.Fatalf("client applied %d tasks, want 4", client.applied)
	}
}

func TestAssignmentPlan_PartialFailureSurvives(t *testing.T) {
	s, group := vodkaSession(t, 2)
	s.SetGroupQuantity(group.Key, "8")
	client := &fakeAssignmentClient{
		failOn: func(task models.AssignmentTask) error {
			if task.LotId == 2 {
				return errors.New("lot has insufficient available quantity")
			}
			return nil
		},
	}

	_, summary, err := ExecuteAssignmentPlan(context.Background(), nil, s, client, DefaultChunkSize)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Success != 2 || summary.Errors != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.Succeeded() {
		t.Fatal("partial success still counts as a successful run")
	}
	for _, sample := range summary.SampledErrors {
		if !strings.Contains(sample, "Vodka") {
			t.Fatalf("sample %q does not name the product", sample)
		}
	}
}
