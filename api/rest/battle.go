package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
	"github.com/PokemonFusion/Fusion2-sub001/model"
)

// Parties loads and stores trainer creatures.
type Parties interface {
	Party(ctx context.Context, owner string) ([]*battle.Creature, error)
	Save(ctx context.Context, owner string, slot int, c *battle.Creature, temporary bool) error
}

// LogReader returns the recent log lines of a battle.
type LogReader interface {
	Tail(ctx context.Context, battleID string) ([]string, error)
}

// HistoryReader returns the full audited turn history of a battle.
type HistoryReader interface {
	History(ctx context.Context, battleID string) ([]model.BattleLog, error)
}

// BattleHandler serves the battle command API. Every route expects the
// caller identity set by middleware.Auth.
type BattleHandler struct {
	registry *session.Registry
	rooms    session.RoomResolver
	cfg      session.Config
	parties  Parties
	tail     LogReader
	history  HistoryReader
	logger   *zap.Logger
}

// NewBattleHandler creates a BattleHandler. cfg is the template for new
// sessions; its Registry is forced to registry.
func NewBattleHandler(
	registry *session.Registry,
	rooms session.RoomResolver,
	cfg session.Config,
	parties Parties,
	tail LogReader,
	history HistoryReader,
	logger *zap.Logger,
) *BattleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Registry = registry
	return &BattleHandler{
		registry: registry,
		rooms:    rooms,
		cfg:      cfg,
		parties:  parties,
		tail:     tail,
		history:  history,
		logger:   logger,
	}
}

// Register mounts the battle routes on g.
func (h *BattleHandler) Register(g gin.IRoutes) {
	g.GET("/battles", h.List)
	g.POST("/battles/wild", h.StartWild)
	g.POST("/battles/pvp", h.StartPVP)
	g.GET("/battles/:id", h.Get)
	g.POST("/battles/:id/move", h.Move)
	g.POST("/battles/:id/switch", h.Switch)
	g.POST("/battles/:id/item", h.Item)
	g.POST("/battles/:id/run", h.Run)
	g.POST("/battles/:id/watch", h.Watch)
	g.DELETE("/battles/:id/watch", h.Unwatch)
	g.POST("/battles/:id/end", h.End)
	g.GET("/battles/:id/log", h.Log)
	g.GET("/battles/:id/history", h.History)
}

type battleSummary struct {
	ID       string   `json:"id"`
	Room     string   `json:"room"`
	Trainers []string `json:"trainers"`
	Watchers []string `json:"watchers"`
}

func summarize(s *session.Session) battleSummary {
	return battleSummary{
		ID:       s.ID(),
		Room:     s.Room().Key(),
		Trainers: s.Trainers(),
		Watchers: s.Watchers(),
	}
}

// List returns the battles the caller trains in or watches.
// GET /api/battles
func (h *BattleHandler) List(c *gin.Context) {
	sessions := h.registry.SessionsFor(mw.GetIdentity(c))
	out := make([]battleSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, summarize(s))
	}
	c.JSON(http.StatusOK, gin.H{"battles": out})
}

func (h *BattleHandler) busy(identity string) bool {
	for _, s := range h.registry.SessionsFor(identity) {
		for _, t := range s.Trainers() {
			if t == identity {
				return true
			}
		}
	}
	return false
}

func (h *BattleHandler) newSession(c *gin.Context, roomKey string) (*session.Session, bool) {
	room, err := h.rooms(c.Request.Context(), roomKey)
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("resolve room", zap.String("room", roomKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room unavailable"})
		return nil, false
	}
	s, err := session.NewSession(room, h.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

func (h *BattleHandler) party(c *gin.Context, owner string) ([]*battle.Creature, bool) {
	party, err := h.parties.Party(c.Request.Context(), owner)
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("load party", zap.String("owner", owner), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return nil, false
	}
	if len(party) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": owner + " has no creatures."})
		return nil, false
	}
	return party, true
}

// StartWild starts a battle against a wild creature built from the dex.
// POST /api/battles/wild
func (h *BattleHandler) StartWild(c *gin.Context) {
	var req struct {
		Room    string   `json:"room" binding:"required"`
		Species string   `json:"species" binding:"required"`
		Level   int      `json:"level" binding:"required,min=1,max=100"`
		Moves   []string `json:"moves"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := mw.GetIdentity(c)
	if h.busy(identity) {
		c.JSON(http.StatusConflict, gin.H{"error": "You are already in a battle."})
		return
	}
	dex := h.cfg.Battle.Dex
	if dex == nil {
		dex = battle.DefaultDex()
	}
	sp, ok := dex.Species(req.Species)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No such species: " + req.Species + "."})
		return
	}
	party, ok := h.party(c, identity)
	if !ok {
		return
	}
	moves := req.Moves
	if len(moves) == 0 {
		moves = []string{"tackle"}
	}
	wild := battle.NewCreature(dex, sp.ID, req.Level, moves...)
	ctx := c.Request.Context()
	if err := h.parties.Save(ctx, "", 0, wild, true); err != nil {
		mw.RequestLogger(c, h.logger).Error("save wild creature", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	s, ok := h.newSession(c, req.Room)
	if !ok {
		return
	}
	err := s.Start(ctx, battle.KindWild,
		session.Side{Name: identity, Player: identity, Creatures: party},
		session.Side{Name: "Wild " + wild.Name, IsAI: true, Creatures: []*battle.Creature{wild}, Temporary: []string{wild.ModelID}},
	)
	h.started(c, s, err)
}

// StartPVP starts a battle between the caller and opponent.
// POST /api/battles/pvp
func (h *BattleHandler) StartPVP(c *gin.Context) {
	var req struct {
		Room     string `json:"room" binding:"required"`
		Opponent string `json:"opponent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := mw.GetIdentity(c)
	if strings.EqualFold(identity, req.Opponent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can't battle yourself."})
		return
	}
	for _, who := range []string{identity, req.Opponent} {
		if h.busy(who) {
			c.JSON(http.StatusConflict, gin.H{"error": who + " is already in a battle."})
			return
		}
	}
	mine, ok := h.party(c, identity)
	if !ok {
		return
	}
	theirs, ok := h.party(c, req.Opponent)
	if !ok {
		return
	}
	s, ok := h.newSession(c, req.Room)
	if !ok {
		return
	}
	err := s.StartPVP(c.Request.Context(),
		session.Side{Name: identity, Player: identity, Creatures: mine},
		session.Side{Name: req.Opponent, Player: req.Opponent, Creatures: theirs},
	)
	h.started(c, s, err)
}

func (h *BattleHandler) started(c *gin.Context, s *session.Session, err error) {
	switch {
	case errors.Is(err, session.ErrStartVetoed):
		c.JSON(http.StatusForbidden, gin.H{"error": "The battle could not be started."})
	case err != nil:
		mw.RequestLogger(c, h.logger).Error("start battle", zap.String("battle_id", s.ID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start battle"})
	default:
		c.JSON(http.StatusCreated, summarize(s))
	}
}

// lookup resolves :id, writing a 404 when the battle is unknown.
func (h *BattleHandler) lookup(c *gin.Context) (*session.Session, bool) {
	s := h.registry.Get(c.Param("id"))
	if s == nil || s.Ended() {
		c.JSON(http.StatusNotFound, gin.H{"error": "battle not found"})
		return nil, false
	}
	return s, true
}

// reply maps a session command error to a response.
func (h *BattleHandler) reply(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if ue, ok := session.IsUserError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ue.Msg})
		return
	}
	mw.RequestLogger(c, h.logger).Error("battle command", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// Get returns the battle snapshot. Only trainers and watchers may read it.
// GET /api/battles/:id
func (h *BattleHandler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if !s.Involves(mw.GetIdentity(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": session.MsgNotParticipant})
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle": summarize(s), "snapshot": s.Snapshot()})
}

// Move queues a move. POST /api/battles/:id/move
func (h *BattleHandler) Move(c *gin.Context) {
	var req struct {
		Move     string `json:"move" binding:"required"`
		Target   string `json:"target"`
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.reply(c, s.QueueMoveAt(c.Request.Context(), mw.GetIdentity(c), req.Position, req.Move, req.Target))
}

// Switch queues a switch to a zero-based roster slot.
// POST /api/battles/:id/switch
func (h *BattleHandler) Switch(c *gin.Context) {
	var req struct {
		Slot     *int   `json:"slot" binding:"required"`
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.reply(c, s.QueueSwitchAt(c.Request.Context(), mw.GetIdentity(c), req.Position, *req.Slot))
}

// Item queues an item use. POST /api/battles/:id/item
func (h *BattleHandler) Item(c *gin.Context) {
	var req struct {
		Item     string `json:"item" binding:"required"`
		Target   string `json:"target"`
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.reply(c, s.QueueItemAt(c.Request.Context(), mw.GetIdentity(c), req.Position, req.Item, req.Target))
}

// Run queues an escape attempt. POST /api/battles/:id/run
// The optional position query parameter names the acting position.
func (h *BattleHandler) Run(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.reply(c, s.QueueRunAt(c.Request.Context(), mw.GetIdentity(c), c.Query("position")))
}

// Watch subscribes the caller. POST /api/battles/:id/watch
func (h *BattleHandler) Watch(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": s.AddWatcher(c.Request.Context(), mw.GetIdentity(c))})
}

// Unwatch unsubscribes the caller. DELETE /api/battles/:id/watch
func (h *BattleHandler) Unwatch(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": s.RemoveWatcher(c.Request.Context(), mw.GetIdentity(c))})
}

// End aborts the battle. Only trainers may end it.
// POST /api/battles/:id/end
func (h *BattleHandler) End(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	identity := mw.GetIdentity(c)
	trainer := false
	for _, t := range s.Trainers() {
		if t == identity {
			trainer = true
		}
	}
	if !trainer {
		c.JSON(http.StatusForbidden, gin.H{"error": session.MsgNotParticipant})
		return
	}
	if err := s.End(c.Request.Context()); err != nil {
		mw.RequestLogger(c, h.logger).Warn("battle cleanup", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Log returns the recent log lines. GET /api/battles/:id/log
func (h *BattleHandler) Log(c *gin.Context) {
	if h.tail == nil {
		c.JSON(http.StatusOK, gin.H{"lines": []string{}})
		return
	}
	lines, err := h.tail.Tail(c.Request.Context(), c.Param("id"))
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("read log tail", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	if lines == nil {
		lines = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// History returns every audited turn, including finished battles.
// GET /api/battles/:id/history
func (h *BattleHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	logs, err := h.history.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("read history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if len(logs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "battle not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": logs})
}
