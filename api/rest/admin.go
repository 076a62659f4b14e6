package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
	"github.com/PokemonFusion/Fusion2-sub001/scheduler"
)

// AdminHandler serves host-only endpoints. Mount it behind
// middleware.AdminOnly.
type AdminHandler struct {
	registry *session.Registry
	dir      session.Directory
	sched    *scheduler.Scheduler
	sec      config.SecurityConfig
	cache    cache.Cache
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	registry *session.Registry,
	dir session.Directory,
	sched *scheduler.Scheduler,
	sec config.SecurityConfig,
	c cache.Cache,
	logger *zap.Logger,
) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{registry: registry, dir: dir, sched: sched, sec: sec, cache: c, logger: logger}
}

// Register mounts the admin routes on g.
func (h *AdminHandler) Register(g gin.IRoutes) {
	g.GET("/metrics", h.Metrics)
	g.POST("/tokens", h.IssueToken)
	g.POST("/registry/save", h.SaveRegistry)
	g.POST("/registry/rebuild", h.RebuildRegistry)
	g.POST("/battles/:id/end", h.EndBattle)
}

// Metrics returns server health metrics.
// GET /admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var tasks []string
	if h.sched != nil {
		tasks = h.sched.ListTickers()
	}
	c.JSON(http.StatusOK, gin.H{
		"active_battles":  h.registry.Count(),
		"scheduler_tasks": tasks,
	})
}

// IssueToken signs a caller identity for a trainer the host has already
// authenticated.
// POST /admin/tokens
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req struct {
		Identity string `json:"identity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := mw.IssueToken(c.Request.Context(), h.sec, h.cache, req.Identity)
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("issue token", zap.String("subject", req.Identity), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	h.logger.Info("token issued", zap.String("identity", req.Identity))
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// SaveRegistry writes the battle registry now.
// POST /admin/registry/save
func (h *AdminHandler) SaveRegistry(c *gin.Context) {
	if err := h.registry.Save(c.Request.Context()); err != nil {
		mw.RequestLogger(c, h.logger).Error("registry save", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": h.registry.Count()})
}

// RebuildRegistry re-attaches connected trainers and watchers.
// POST /admin/registry/rebuild
func (h *AdminHandler) RebuildRegistry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"attached": h.registry.Rebuild(h.dir)})
}

// EndBattle force-ends a battle.
// POST /admin/battles/:id/end
func (h *AdminHandler) EndBattle(c *gin.Context) {
	s := h.registry.Get(c.Param("id"))
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "battle not found"})
		return
	}
	if err := s.End(c.Request.Context()); err != nil {
		mw.RequestLogger(c, h.logger).Warn("battle cleanup", zap.Error(err))
	}
	mw.RequestLogger(c, h.logger).Info("admin ended battle")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
