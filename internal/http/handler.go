package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet-dashboard/internal/mapview"
	"fleet-dashboard/internal/model"
	"fleet-dashboard/internal/service"
)

const manualReloadTimeout = time.Minute

type Handler struct {
	dashboard *service.DashboardService
	jobs      *service.JobService
	live      http.Handler
	log       zerolog.Logger
}

func NewHandler(
	dashboard *service.DashboardService,
	jobs *service.JobService,
	live http.Handler,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		dashboard: dashboard,
		jobs:      jobs,
		live:      live,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/state", h.getState)
		api.POST("/reload", h.reload)
		api.GET("/summary", h.getSummary)
		api.GET("/map", h.getMap)
		api.GET("/live", gin.WrapH(h.live))
	}

	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", h.listVehicles)
		vehicles.PATCH("/:id/type", h.updateVehicleType)
	}
	api.GET("/vehicle-types", h.listVehicleTypes)

	jobs := api.Group("/jobs")
	{
		jobs.GET("", h.listJobs)
		jobs.POST("", h.createJob)
		jobs.GET("/:id", h.getJob)
		jobs.PUT("/:id", h.updateJob)
		jobs.DELETE("/:id", h.deleteJob)
	}
}

type stateResponse struct {
	LastUpdated  *time.Time `json:"last_updated"`
	Error        string     `json:"error,omitempty"`
	VehicleCount int        `json:"vehicle_count"`
	JobCount     int        `json:"job_count"`
}

func newStateResponse(state *model.DashboardState) stateResponse {
	return stateResponse{
		LastUpdated:  state.LastUpdated,
		Error:        state.Error,
		VehicleCount: len(state.Vehicles),
		JobCount:     len(state.Summary),
	}
}

func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(newStateResponse(h.dashboard.State())))
}

func (h *Handler) reload(c *gin.Context) {
	// A client hanging up must not abort a load other readers will see.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), manualReloadTimeout)
	defer cancel()

	state, err := h.dashboard.Reload(ctx)
	if err != nil {
		if state != nil {
			c.JSON(http.StatusBadGateway, errorResponse(state.Error))
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(newStateResponse(state)))
}

func (h *Handler) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.dashboard.State().Summary))
}

// getMap answers with a bare GeoJSON FeatureCollection so map libraries can
// load the URL directly.
func (h *Handler) getMap(c *gin.Context) {
	view := mapview.Build(h.dashboard.State().Vehicles)
	c.JSON(http.StatusOK, view.FeatureCollection())
}

func (h *Handler) listVehicles(c *gin.Context) {
	column, err := service.ParseSortColumn(c.Query("sort"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	direction, err := service.ParseSortDirection(c.Query("dir"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	query := service.TableQuery{
		JobFilter: c.DefaultQuery("job_id", service.JobFilterAll),
		Search:    c.Query("q"),
		Column:    column,
		Direction: direction,
	}
	// types= with no value selects no type at all; leaving it out selects all.
	if raw, ok := c.GetQueryArray("types"); ok {
		query.FilterTypes = true
		query.Types = splitTypes(raw)
	}

	rows := service.ApplyTableQuery(h.dashboard.State().Vehicles, query)
	c.JSON(http.StatusOK, successResponse(rows))
}

func (h *Handler) updateVehicleType(c *gin.Context) {
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.jobs.UpdateVehicleType(c.Request.Context(), c.Param("id"), req.Type); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listVehicleTypes(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.jobs.VehicleTypes()))
}

func (h *Handler) listJobs(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(jobs))
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(job))
}

func (h *Handler) createJob(c *gin.Context) {
	var req model.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(job))
}

func (h *Handler) updateJob(c *gin.Context) {
	var req model.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	job, err := h.jobs.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(job))
}

func (h *Handler) deleteJob(c *gin.Context) {
	if err := h.jobs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func splitTypes(raw []string) []string {
	types := []string{}
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
	}
	return types
}
