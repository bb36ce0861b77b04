package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cchai186/commodity-price-tracker/internal/auth"
	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/pipeline"
	"github.com/cchai186/commodity-price-tracker/internal/quotes"
	"github.com/cchai186/commodity-price-tracker/internal/store"
	"github.com/cchai186/commodity-price-tracker/internal/version"
)

// Handler contains the API handlers.
type Handler struct {
	store      store.Store
	dispatcher Dispatcher
	schedule   Schedule
	snapshot   *quotes.Snapshot
	auth       *auth.Manager
	log        *zap.SugaredLogger
}

// NewHandler creates the API handler set.
func NewHandler(opts Options) *Handler {
	return &Handler{
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		schedule:   opts.Schedule,
		snapshot:   opts.Snapshot,
		auth:       opts.Auth,
		log:        opts.Logger,
	}
}

// Health answers liveness probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get().Version})
}

// LoginRequest carries dashboard credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiresAt, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// DispatchRequest optionally names who asked for the run.
type DispatchRequest struct {
	RequestedBy string `json:"requested_by"`
}

// DispatchRun starts a manual run. A run already in flight yields 409,
// the request is never queued.
func (h *Handler) DispatchRun(c *gin.Context) {
	var req DispatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.RequestedBy == "" {
		req.RequestedBy = c.GetString("username")
	}

	run, err := h.dispatcher.Dispatch(models.TriggerManual, req.RequestedBy)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.log.Infof("manual run %s dispatched by %s", run.ID, run.RequestedBy)
	c.JSON(http.StatusAccepted, run)
}

// ListRuns returns run history, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := c.Query("status")

	runs, total, err := h.store.ListRuns(limit, offset, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetRun returns a single run with its steps.
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.store.GetRun(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListQuotes returns the cached quotes of every category.
func (h *Handler) ListQuotes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.snapshot.All()})
}

// GetQuotes returns the cached quotes of one category.
func (h *Handler) GetQuotes(c *gin.Context) {
	cq, ok := h.snapshot.Get(c.Param("category"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached quotes for category"})
		return
	}
	c.JSON(http.StatusOK, cq)
}

// GetStatus reports daemon health: build info, run counts, the most
// recent run, the active run and the next scheduled fire time.
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"version":    version.Get(),
		"runs":       counts,
		"active_run": nil,
		"last_run":   nil,
	}
	if last, _, err := h.store.ListRuns(1, 0, ""); err == nil && len(last) > 0 {
		resp["last_run"] = last[0]
	}
	if id, active := h.dispatcher.Active(); active {
		resp["active_run"] = id
	}
	if h.schedule != nil {
		resp["next_scheduled_run"] = h.schedule.Next().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
