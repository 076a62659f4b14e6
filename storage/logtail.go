package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
)

var _ session.Recorder = (*LogTail)(nil)

// LogTail keeps the most recent log lines of every battle in a cache list
// so late watchers can catch up.
type LogTail struct {
	c      cache.Cache
	size   int
	ttl    time.Duration
	logger *zap.Logger
}

// NewLogTail keeps up to size lines per battle. Lists expire ttl after
// their last write when ttl is positive.
func NewLogTail(c cache.Cache, size int, ttl time.Duration, logger *zap.Logger) *LogTail {
	if size <= 0 {
		size = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTail{c: c, size: size, ttl: ttl, logger: logger}
}

func tailKey(battleID string) string { return "battle:log:" + battleID }

// RecordTurn pushes a turn header and the turn's lines.
func (t *LogTail) RecordTurn(battleID string, turn int, lines []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	values := append([]string{fmt.Sprintf("Turn %d", turn)}, lines...)
	key := tailKey(battleID)
	if err := t.c.LPush(ctx, key, values...); err != nil {
		t.logger.Warn("log tail push", zap.String("battle_id", battleID), zap.Error(err))
		return
	}
	if err := t.c.LTrim(ctx, key, 0, int64(t.size-1)); err != nil {
		t.logger.Warn("log tail trim", zap.String("battle_id", battleID), zap.Error(err))
	}
	if t.ttl > 0 {
		_ = t.c.Expire(ctx, key, t.ttl)
	}
}

// Tail returns the stored lines oldest first.
func (t *LogTail) Tail(ctx context.Context, battleID string) ([]string, error) {
	lines, err := t.c.LRange(ctx, tailKey(battleID), 0, -1)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

// Recorders fans one turn out to several recorders.
type Recorders []session.Recorder

func (rs Recorders) RecordTurn(battleID string, turn int, lines []string) {
	for _, r := range rs {
		if r != nil {
			r.RecordTurn(battleID, turn, lines)
		}
	}
}
