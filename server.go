package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/middlewares"
	"bitbucket.org/mmdatafocus/venue_backend/models"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"bitbucket.org/mmdatafocus/venue_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

/* request payloads */

type planGroupInput struct {
	ProductId       int    `json:"product_id" binding:"required"`
	Quantity        string `json:"quantity"`
	SellAsWholeUnit bool   `json:"sell_as_whole_unit"`
	SalePrice       string `json:"sale_price"`
}

type bulkAssignmentRequest struct {
	LotIds []int            `json:"lot_ids" binding:"required,min=1"`
	BarIds []int            `json:"bar_ids" binding:"required,min=1"`
	Groups []planGroupInput `json:"groups" binding:"required,min=1,dive"`
}

type bulkReturnRequest struct {
	BarId       int    `json:"bar_id" binding:"required"`
	Mode        string `json:"mode" binding:"required,oneof=to_global to_supplier auto"`
	SelectedIds []int  `json:"selected_ids"`
}

/* stock service adapters */

// stockServiceClient backs the engine's external operations with the models
// layer. Each Assign call is one independent transaction, so task failures
// stay isolated.
type stockServiceClient struct{}

func (stockServiceClient) Assign(ctx context.Context, venueId string, task models.AssignmentTask) error {
	return models.ApplyAssignment(ctx, venueId, task)
}

func (stockServiceClient) ExecuteBulkReturn(ctx context.Context, venueId string, mode models.ReturnMode, items []models.ReturnTask) (*models.BulkReturnResult, error) {
	return models.ExecuteBulkReturn(ctx, venueId, mode, items)
}

type confirmedPriceLookup struct {
	venueId string
}

func (l confirmedPriceLookup) GetConfirmedSalePrice(ctx context.Context, productId int) (*decimal.Decimal, error) {
	price, err := models.GetConfirmedSalePrice(ctx, l.venueId, productId)
	if err == utils.ErrorRecordNotFound {
		// A lookup miss just means no auto-fill source.
		return nil, nil
	}
	return price, err
}

func assignmentChunkSize() int {
	v := strings.TrimSpace(os.Getenv("ASSIGNMENT_CHUNK_SIZE"))
	if v == "" {
		return workflow.DefaultChunkSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return workflow.DefaultChunkSize
	}
	return n
}

func bindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// buildPlanningSession loads the lot/bar snapshots and replays the operator's
// group settings onto a fresh session.
func buildPlanningSession(c *gin.Context, req bulkAssignmentRequest) (*workflow.PlanningSession, error) {
	ctx := c.Request.Context()
	venueId, _ := utils.GetVenueIdFromContext(ctx)

	lots, err := models.GetLots(ctx, venueId, req.LotIds)
	if err != nil {
		return nil, err
	}
	bars, err := models.GetBars(ctx, venueId, req.BarIds)
	if err != nil {
		return nil, err
	}

	session := workflow.NewPlanningSession(venueId, lots, bars)
	lookup := confirmedPriceLookup{venueId: venueId}
	for _, input := range req.Groups {
		for _, group := range session.Groups() {
			if group.ProductId != input.ProductId {
				continue
			}
			if err := session.SetGroupDirectSale(ctx, group.Key, input.SellAsWholeUnit, lookup); err != nil {
				return nil, err
			}
			session.SetGroupQuantity(group.Key, input.Quantity)
			if strings.TrimSpace(input.SalePrice) != "" {
				session.SetGroupPrice(group.Key, input.SalePrice)
			}
		}
	}
	return session, nil
}

type planGroupView struct {
	ProductId         int      `json:"product_id"`
	ProductName       string   `json:"product_name"`
	Suppliers         []string `json:"suppliers"`
	TotalAvailable    string   `json:"total_available"`
	MaxPerDestination string   `json:"max_per_destination"`
	PerDestination    string   `json:"per_destination"`
	SellAsWholeUnit   bool     `json:"sell_as_whole_unit"`
	SalePrice         string   `json:"sale_price"`
	PriceLocked       bool     `json:"price_locked"`
}

func planGroupViews(session *workflow.PlanningSession) []planGroupView {
	views := make([]planGroupView, 0, len(session.Groups()))
	for _, group := range session.Groups() {
		view := planGroupView{
			ProductId:         group.ProductId,
			ProductName:       group.ProductName,
			TotalAvailable:    group.TotalAvailable.String(),
			MaxPerDestination: group.MaxPerDestination(session.DestinationCount()).String(),
			SellAsWholeUnit:   group.DirectSale(),
			PriceLocked:       group.PriceLocked(),
		}
		for _, slot := range group.Suppliers {
			view.Suppliers = append(view.Suppliers, slot.SupplierName)
		}
		if quantity, entered := group.PerDestinationQuantity(); entered {
			view.PerDestination = quantity.String()
		}
		if price := group.SalePrice(); price != nil {
			view.SalePrice = price.String()
		}
		views = append(views, view)
	}
	return views
}

func previewAssignmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		session, err := buildPlanningSession(c, req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		failures := session.ValidatePlan()
		taskCount := 0
		if len(failures) == 0 {
			tasks, expandErr := session.ExpandTasks()
			if expandErr != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": expandErr.Error()})
				return
			}
			taskCount = len(tasks)
		}
		c.JSON(http.StatusOK, gin.H{
			"groups":     planGroupViews(session),
			"failures":   failures,
			"task_count": taskCount,
		})
	}
}

func executeAssignmentHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		session, err := buildPlanningSession(c, req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		runId, summary, err := workflow.ExecuteAssignmentPlan(c.Request.Context(), logger, session, stockServiceClient{}, assignmentChunkSize())
		if err != nil {
			status := http.StatusUnprocessableEntity
			if err == workflow.ErrorDispatchInProgress {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		// The dispatcher only reports outcomes; stock-derived caches are
		// stale now and must be dropped here.
		if summary.Success > 0 {
			venueId, _ := utils.GetVenueIdFromContext(c.Request.Context())
			if err := utils.ClearStockCaches(venueId, req.BarIds); err != nil {
				config.LogError(logger, "server.go", "executeAssignmentHandler", "ClearStockCaches", venueId, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id": runId,
			"summary": summary,
			// Error-free plans auto-close; any error keeps the plan open for
			// inspection.
			"auto_close": summary.Errors == 0,
		})
	}
}

func assignmentRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := workflow.GetAssignmentRun(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func bulkReturnHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
		ctx := c.Request.Context()
		venueId, _ := utils.GetVenueIdFromContext(ctx)

		if err := utils.ValidateResourceId[models.Bar](ctx, venueId, req.BarId); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "bar not found"})
			return
		}
		stocks, err := models.GetBarStocks(ctx, venueId, req.BarId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		selected := make(map[int]bool, len(req.SelectedIds))
		for _, id := range req.SelectedIds {
			selected[id] = true
		}

		router := &workflow.ReturnRouter{Logger: logger, Client: stockServiceClient{}}
		result, notes, err := router.Execute(ctx, venueId, models.ReturnMode(req.Mode), stocks, selected, nil)
		if err != nil {
			if err == workflow.ErrorNothingToReturn {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "notes": notes})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if result.Processed > 0 {
			if err := utils.ClearStockCaches(venueId, []int{req.BarId}); err != nil {
				config.LogError(logger, "server.go", "bulkReturnHandler", "ClearStockCaches", venueId, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"result": result, "notes": notes})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// correlationIdMiddleware attaches a correlation id to the request context,
// minting one when the caller did not send any. The id is echoed back in the
// response header so callers can quote it when reporting a failed dispatch.
func correlationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("X-Correlation-Id", cid)
		c.Next()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	r.Use(correlationIdMiddleware())
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("X-Venue-Id", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/", middlewares.VenueMiddleware())
	api.POST("/bulk-assignment/preview", previewAssignmentHandler())
	api.POST("/bulk-assignment", executeAssignmentHandler(logger))
	api.GET("/bulk-assignment/runs/:id", assignmentRunHandler())
	api.POST("/bulk-return", bulkReturnHandler(logger))

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
