package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/dashboard"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/service"
	"github.com/jengzang/profileviewer-go/internal/source"
	"github.com/jengzang/profileviewer-go/pkg/response"
)

// DashboardHandler handles HTTP requests for dashboard sessions
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	var (
		fetchErr   *source.FetchError
		invalidErr *dashboard.InvalidRecordError
		typeErr    *crossfilter.TypeMismatchError
		notFound   *dashboard.NotFoundError
	)
	switch {
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &invalidErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &typeErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrSessionClosed):
		return http.StatusGone
	}
	return 0
}

// OpenSession fetches a subject's check-ins and opens a session
// POST /api/v1/sessions
func (h *DashboardHandler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	info, err := h.service.Open(c.Request.Context(), req.Subject)
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Created(c, info)
}

// OpenBatch opens one session per subject
// POST /api/v1/sessions/batch
func (h *DashboardHandler) OpenBatch(c *gin.Context) {
	var req models.OpenBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	infos, err := h.service.OpenBatch(c.Request.Context(), req.Subjects)
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Created(c, infos)
}

// GetViews returns every view of a session
// GET /api/v1/sessions/:token/views?cap=n
func (h *DashboardHandler) GetViews(c *gin.Context) {
	var q models.ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid cap")
		return
	}

	views, err := h.service.Views(c.Param("token"), q.Cap)
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Success(c, views)
}

// GetView returns one view of a session
// GET /api/v1/sessions/:token/views/:kind?cap=n
func (h *DashboardHandler) GetView(c *gin.Context) {
	var q models.ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid cap")
		return
	}

	view, err := h.service.View(c.Param("token"), c.Param("kind"), q.Cap)
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Success(c, view)
}

// SetFilter replaces the filter of one view
// POST /api/v1/sessions/:token/filter
func (h *DashboardHandler) SetFilter(c *gin.Context) {
	var req models.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.SetFilter(c.Param("token"), req); err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	h.GetViews(c)
}

// Focus filters a view to one topic
// POST /api/v1/sessions/:token/focus
func (h *DashboardHandler) Focus(c *gin.Context) {
	var req models.FocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.Focus(c.Param("token"), req.Topic, req.View); err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	h.GetViews(c)
}

// Unfocus clears the listed views, or all of them
// POST /api/v1/sessions/:token/unfocus
func (h *DashboardHandler) Unfocus(c *gin.Context) {
	var req models.UnfocusRequest
	// an empty body clears every view
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.Unfocus(c.Param("token"), req.Views); err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	h.GetViews(c)
}

// GetMarkers returns the map overlay
// GET /api/v1/sessions/:token/markers
func (h *DashboardHandler) GetMarkers(c *gin.Context) {
	state, err := h.service.Markers(c.Param("token"))
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Success(c, state)
}

// GetSummary returns profile indicators of the visible check-ins
// GET /api/v1/sessions/:token/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	sum, err := h.service.Summary(c.Param("token"))
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Success(c, sum)
}

// Events streams view snapshots as server-sent events, one "view" event per
// changed view, until the client leaves or the session ends
// GET /api/v1/sessions/:token/events
func (h *DashboardHandler) Events(c *gin.Context) {
	feed, cancel, err := h.service.Subscribe(c.Param("token"))
	if err != nil {
		response.FromError(c, err, statusFor)
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-feed.Done():
			c.SSEvent("closed", gin.H{"reason": "session ended"})
			return false
		case <-feed.Ready():
			for _, snap := range feed.Drain() {
				c.SSEvent("view", service.NewViewData(snap, 0))
			}
			return true
		}
	})
}

// CloseSession ends a session
// DELETE /api/v1/sessions/:token
func (h *DashboardHandler) CloseSession(c *gin.Context) {
	if err := h.service.Close(c.Param("token")); err != nil {
		response.FromError(c, err, statusFor)
		return
	}

	response.Success(c, gin.H{"closed": true})
}
