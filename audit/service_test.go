package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/model"
	"github.com/PokemonFusion/Fusion2-sub001/testutil"
)

func TestRecordTurn_FlushedOnStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop(), Options{FlushInterval: time.Hour})

	svc.RecordTurn("b1", 1, []string{"Pikachu used Thunder Shock!", "It's super effective!"})
	svc.RecordTurn("b2", 1, []string{"Got away safely!"})
	svc.Stop(context.Background())

	var logs []model.BattleLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "b1", logs[0].BattleID)
	var lines []string
	require.NoError(t, json.Unmarshal(logs[0].Lines, &lines))
	assert.Equal(t, []string{"Pikachu used Thunder Shock!", "It's super effective!"}, lines)
}

func TestRecordTurn_BatchSizeTriggersFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, Options{BatchSize: 5, FlushInterval: time.Hour})
	defer svc.Stop(context.Background())

	for i := 1; i <= 5; i++ {
		svc.RecordTurn("b1", i, []string{fmt.Sprintf("turn %d", i)})
	}
	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&model.BattleLog{}).Count(&n)
		return n == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHistoryOrdersTurns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, Options{})
	for _, turn := range []int{3, 1, 2} {
		svc.RecordTurn("b1", turn, []string{"x"})
	}
	svc.RecordTurn("other", 1, []string{"y"})
	svc.Stop(context.Background())

	logs, err := svc.History(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{logs[0].Turn, logs[1].Turn, logs[2].Turn})
}

func TestStopIsIdempotent(t *testing.T) {
	svc := New(testutil.SetupTestDB(t), nil, Options{})
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}
