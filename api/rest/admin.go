package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemvault/audit"
	"github.com/kasuganosora/itemvault/scheduler"
	"github.com/kasuganosora/itemvault/store"
	"go.uber.org/zap"
)

// IntegrityTask is the scheduler name of the periodic integrity sweep.
const IntegrityTask = "integrity_sweep"

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by the IPWhitelist middleware.
type AdminHandler struct {
	items  *store.EntityStore
	sched  *scheduler.Scheduler // optional
	audit  *audit.Service       // optional
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(items *store.EntityStore, sched *scheduler.Scheduler, auditSvc *audit.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{items: items, sched: sched, audit: auditSvc, logger: logger}
}

// Integrity runs a read-only consistency scan and returns the report.
// GET /api/admin/integrity
func (h *AdminHandler) Integrity(c *gin.Context) {
	report, err := h.items.Integrity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"healthy": report.Healthy(), "report": report})
}

// RunSweep triggers the scheduled integrity sweep immediately.
// POST /api/admin/integrity/sweep
func (h *AdminHandler) RunSweep(c *gin.Context) {
	if h.sched == nil || !h.sched.RunNow(IntegrityTask) {
		c.JSON(http.StatusNotFound, gin.H{"error": "integrity sweep is not scheduled"})
		return
	}
	h.logger.Info("integrity sweep triggered", zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// ListSchedulerTasks returns every scheduled task with its last run.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	tasks := []scheduler.TaskStatus{}
	if h.sched != nil {
		tasks = h.sched.List()
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// AuditLog returns recent audit rows, optionally filtered by entity.
// GET /api/admin/audit?entity=WEAPON&limit=50
func (h *AdminHandler) AuditLog(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit is disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.Recent(c.Request.Context(), c.Query("entity"), limit)
	if err != nil {
		h.logger.Error("audit query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
