package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/application/service"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/guard"
	"github.com/garyjia/escrow-portal/internal/infrastructure/export"
)

// Version is reported by the health check
var Version = "dev"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Detail    string `json:"detail,omitempty"`
}

// DashboardViewRequest carries records to reconcile without touching the backend
type DashboardViewRequest struct {
	Milestones []entity.Record `json:"milestones"`
	Invoices   []entity.Record `json:"invoices"`
	service.ViewOptions
}

// GuardRequest asks whether one action is allowed
type GuardRequest struct {
	Action    guard.Action  `json:"action" binding:"required"`
	Agreement entity.Record `json:"agreement"`
	Entity    *struct {
		Kind   entity.Kind   `json:"kind"`
		Record entity.Record `json:"record"`
	} `json:"entity"`
}

// GuardResponse is the decision for one action
type GuardResponse struct {
	Action  guard.Action `json:"action"`
	Allowed bool         `json:"allowed"`
}

// ListReportsRequest represents query parameters for listing reports
type ListReportsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	if h.services.Health != nil {
		if err := h.services.Health(c.Request.Context()); err != nil {
			response.Status = "degraded"
			response.Detail = err.Error()
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   "dependency check failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// BuildDashboardView handles POST /api/v1/dashboard/view
func (h *Handlers) BuildDashboardView(c *gin.Context) {
	var req DashboardViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	view := h.services.Dashboard.GetDashboardView(req.Milestones, req.Invoices, req.ViewOptions)
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// GetDashboard handles GET /api/v1/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	opts, ok := h.bindOptions(c)
	if !ok {
		return
	}

	view, err := h.services.Reconciliation.Dashboard(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "failed to build dashboard", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// ExportDashboard handles GET /api/v1/dashboard/export
func (h *Handlers) ExportDashboard(c *gin.Context) {
	opts, ok := h.bindOptions(c)
	if !ok {
		return
	}

	snap, err := h.services.Reconciliation.Snapshot(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "failed to reconcile for export", err)
		return
	}

	var buf bytes.Buffer
	if err := h.services.Exporter.Write(snap, &buf); err != nil {
		h.fail(c, "failed to render workbook", err)
		return
	}

	filename := fmt.Sprintf("reconciliation-%s.xlsx", snap.GeneratedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetExpenseSummary handles GET /api/v1/expenses/summary
func (h *Handlers) GetExpenseSummary(c *gin.Context) {
	opts, ok := h.bindOptions(c)
	if !ok {
		return
	}

	summary, err := h.services.Reconciliation.Expenses(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "failed to summarize expenses", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// GetDisputeSummary handles GET /api/v1/disputes/summary
func (h *Handlers) GetDisputeSummary(c *gin.Context) {
	opts, ok := h.bindOptions(c)
	if !ok {
		return
	}

	summary, err := h.services.Reconciliation.Disputes(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "failed to summarize disputes", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// CheckGuard handles POST /api/v1/guard
func (h *Handlers) CheckGuard(c *gin.Context) {
	var req GuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	if !req.Action.IsValid() {
		h.badRequest(c, "unknown action", fmt.Errorf("action %q", req.Action))
		return
	}

	var kind entity.Kind
	var rec entity.Record
	if req.Entity != nil {
		kind, rec = req.Entity.Kind, req.Entity.Record
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: GuardResponse{
			Action:  req.Action,
			Allowed: h.services.Guard.Check(req.Action, req.Agreement, kind, rec),
		},
	})
}

// GetAgreementActions handles GET /api/v1/agreements/:id/actions
func (h *Handlers) GetAgreementActions(c *gin.Context) {
	id := c.Param("id")

	actions, err := h.services.Guard.AgreementActions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to load agreement", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: actions})
}

// ListHomeowners handles GET /api/v1/homeowners
func (h *Handlers) ListHomeowners(c *gin.Context) {
	homeowners, err := h.services.Directory.Homeowners(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to load homeowners", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: homeowners})
}

// InvalidateHomeowners handles DELETE /api/v1/homeowners
func (h *Handlers) InvalidateHomeowners(c *gin.Context) {
	if err := h.services.Directory.Invalidate(c.Request.Context(), service.HomeownersKey); err != nil {
		h.fail(c, "failed to invalidate homeowners", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListReports handles GET /api/v1/reports
func (h *Handlers) ListReports(c *gin.Context) {
	var req ListReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	reports, err := h.services.Reports.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, "failed to list reports", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// RecordReport handles POST /api/v1/reports
func (h *Handlers) RecordReport(c *gin.Context) {
	opts, ok := h.bindOptions(c)
	if !ok {
		return
	}

	snap, err := h.services.Reconciliation.Snapshot(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "failed to reconcile", err)
		return
	}
	report, err := h.services.Reports.Record(c.Request.Context(), snap)
	if err != nil {
		h.fail(c, "failed to record report", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: report})
}

// GetReport handles GET /api/v1/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.services.Reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to get report", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

func (h *Handlers) bindOptions(c *gin.Context) (service.ViewOptions, bool) {
	var opts service.ViewOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return opts, false
	}
	return opts, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps service errors onto status codes
func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	h.logger.Error(msg, "path", c.FullPath(), "status", status, "error", err)
	c.JSON(status, Response{Success: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, port.ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
