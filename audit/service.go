package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/PokemonFusion/Fusion2-sub001/model"
)

// Options tunes batching. Zero values pick the defaults.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

// Service writes battle turn logs asynchronously in batches. It satisfies
// session.Recorder.
type Service struct {
	db     *gorm.DB
	opts   Options
	ch     chan *model.BattleLog
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:     db,
		opts:   opts,
		ch:     make(chan *model.BattleLog, opts.QueueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// RecordTurn enqueues the lines of one resolved turn. It never blocks; when
// the queue is full the entry is dropped and a warning logged.
func (svc *Service) RecordTurn(battleID string, turn int, lines []string) {
	raw, err := json.Marshal(lines)
	if err != nil {
		svc.logger.Warn("battle log encode failed", zap.String("battle_id", battleID), zap.Error(err))
		return
	}
	record := &model.BattleLog{
		BattleID: battleID,
		Turn:     turn,
		Lines:    datatypes.JSON(raw),
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("battle log queue full, dropping entry",
			zap.String("battle_id", battleID), zap.Int("turn", turn))
	}
}

// History returns the stored turns of a battle in order.
func (svc *Service) History(ctx context.Context, battleID string) ([]model.BattleLog, error) {
	var logs []model.BattleLog
	err := svc.db.WithContext(ctx).
		Where("battle_id = ?", battleID).
		Order("turn ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	svc.once.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]*model.BattleLog, 0, svc.opts.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("battle log batch write failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= svc.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
