package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// Defaults fill request fields the caller leaves empty
type Defaults struct {
	Horizon     int
	Capacity    int64
	Granularity dto.Granularity
	HoldingDays int
	Timeout     time.Duration
	// MaxTimeout caps timeout_ms; zero leaves requests uncapped
	MaxTimeout time.Duration

	// TransportRate applies to scenarios that set no per-km rate
	TransportRate *decimal.Decimal
}

// Handler serves the planning API
type Handler struct {
	planner  *orchestration.Planner
	defaults Defaults
	logger   *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(planner *orchestration.Planner, defaults Defaults, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{planner: planner, defaults: defaults, logger: logger}
}

// PlanRequest is the body of optimization and comparison requests
type PlanRequest struct {
	Scenario     dto.ScenarioInput `json:"scenario"`
	Granularity  dto.Granularity   `json:"granularity"`
	HoldingDays  int               `json:"holding_days"`
	TimeoutMS    int64             `json:"timeout_ms"`
	BoundBySales bool              `json:"bound_by_sales"`
}

// RunResponse wraps a result with the id it was stored under
type RunResponse struct {
	RunID  string      `json:"run_id,omitempty"`
	Result interface{} `json:"result"`
}

// Simulate handles POST /api/v1/simulations with a scenario body
func (h *Handler) Simulate(c *gin.Context) {
	var in dto.ScenarioInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	scenario, err := h.scenario(&in)
	if err != nil {
		h.fail(c, err)
		return
	}

	outcome, err := h.planner.Simulate(c.Request.Context(), scenario)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, entities.RunKindSimulation, scenario.Name, outcome)
}

// Optimize handles POST /api/v1/optimizations
func (h *Handler) Optimize(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	scenario, err := h.scenario(&req.Scenario)
	if err != nil {
		h.fail(c, err)
		return
	}

	plan, report, err := h.planner.Optimize(c.Request.Context(), scenario.Registry, optimization.Request{
		Capacity:    scenario.Capacity,
		Horizon:     scenario.Horizon,
		Granularity: h.granularity(req.Granularity),
		HoldingDays: h.holdingDays(req.HoldingDays),
		Timeout:     h.timeout(req.TimeoutMS),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, entities.RunKindOptimization, scenario.Name, gin.H{"plan": plan, "financials": report})
}

// Compare handles POST /api/v1/comparisons
func (h *Handler) Compare(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	scenario, err := h.scenario(&req.Scenario)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.planner.Compare(c.Request.Context(), orchestration.CompareRequest{
		Scenario:     scenario,
		Granularity:  h.granularity(req.Granularity),
		HoldingDays:  h.holdingDays(req.HoldingDays),
		Timeout:      h.timeout(req.TimeoutMS),
		BoundBySales: req.BoundBySales,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, entities.RunKindComparison, scenario.Name, result)
}

// GetRun returns a stored run of the given kind by id. A run of another kind is not found.
func (h *Handler) GetRun(kind entities.RunKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		record, err := h.planner.Run(c.Request.Context(), id)
		if err == nil && record.Kind != kind {
			err = fmt.Errorf("%w: no %s %s", repositories.ErrRunNotFound, kind, id)
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// ListRuns returns stored runs, newest first, filtered by ?kind= and capped by ?limit=
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records, err := h.planner.Runs(c.Request.Context(), entities.RunKind(c.Query("kind")), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []*entities.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": records})
}

func (h *Handler) scenario(in *dto.ScenarioInput) (*entities.Scenario, error) {
	if in.Horizon == 0 {
		in.Horizon = h.defaults.Horizon
	}
	if in.Capacity == 0 {
		in.Capacity = h.defaults.Capacity
	}
	if in.Name == "" {
		in.Name = "api"
	}
	if in.TransportRatePerKm == nil {
		in.TransportRatePerKm = h.defaults.TransportRate
	}
	return in.ToScenario()
}

func (h *Handler) respond(c *gin.Context, kind entities.RunKind, scenario string, result interface{}) {
	record, err := h.planner.Save(c.Request.Context(), kind, scenario, result)
	if err != nil {
		h.logger.Error("failed to persist run", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist run"})
		return
	}
	resp := RunResponse{Result: result}
	status := http.StatusOK
	if record != nil {
		resp.RunID = record.ID
		status = http.StatusCreated
		c.Header("Location", c.FullPath()+"/"+record.ID)
	}
	c.JSON(status, resp)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var cfgErr *entities.ConfigurationError
	var infeasible *entities.InfeasibleError
	var unbounded *entities.UnboundedError
	var timeout *entities.TimeoutError
	var syntaxErr *json.SyntaxError

	status := http.StatusInternalServerError
	field := ""
	switch {
	case errors.As(err, &cfgErr):
		status, field = http.StatusBadRequest, cfgErr.Field
	case errors.As(err, &syntaxErr):
		status = http.StatusBadRequest
	case errors.Is(err, repositories.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.As(err, &infeasible), errors.As(err, &unbounded):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &timeout):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	body := gin.H{"error": err.Error()}
	if field != "" {
		body["field"] = field
	}
	c.JSON(status, body)
}

func (h *Handler) granularity(g dto.Granularity) dto.Granularity {
	if g == "" {
		return h.defaults.Granularity
	}
	return g
}

func (h *Handler) holdingDays(days int) int {
	if days == 0 {
		return h.defaults.HoldingDays
	}
	return days
}

func (h *Handler) timeout(ms int64) time.Duration {
	if ms <= 0 {
		return h.defaults.Timeout
	}
	if limit := h.defaults.MaxTimeout; limit > 0 && ms > limit.Milliseconds() {
		return limit
	}
	return time.Duration(ms) * time.Millisecond
}
