package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pass(d interface{}) Fn {
	return func(_ context.Context, _ string, data interface{}) (interface{}, error) { return data, nil }
}

func TestTrigger_NoHandlers(t *testing.T) {
	c := NewCenter(nil)
	out, err := c.Trigger(context.Background(), BattleTurnEnd, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestTrigger_DataPassThrough(t *testing.T) {
	c := NewCenter(zap.NewNop())
	c.Register("ev", 0, "double", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data.(int) * 2, nil
	})
	c.Register("ev", 1, "addTen", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data.(int) + 10, nil
	})
	out, err := c.Trigger(context.Background(), "ev", 5)
	require.NoError(t, err)
	assert.Equal(t, 20, out)
}

func TestTrigger_PriorityThenRegistrationOrder(t *testing.T) {
	c := NewCenter(nil)
	var order []string
	add := func(prio int, name string) {
		c.Register("ev", prio, name, func(_ context.Context, _ string, d interface{}) (interface{}, error) {
			order = append(order, name)
			return d, nil
		})
	}
	add(10, "late")
	add(1, "first")
	add(5, "mid-a")
	add(5, "mid-b")
	c.Trigger(context.Background(), "ev", nil)
	assert.Equal(t, []string{"first", "mid-a", "mid-b", "late"}, order)
}

func TestTrigger_InterruptVetoes(t *testing.T) {
	c := NewCenter(nil)
	var secondCalled bool
	c.Register(BattleStart, 0, "closed-arena", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return d, ErrInterrupt
	})
	c.Register(BattleStart, 1, "should_not_run", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		secondCalled = true
		return d, nil
	})
	_, err := c.Trigger(context.Background(), BattleStart, nil)
	assert.True(t, errors.Is(err, ErrInterrupt))
	assert.False(t, secondCalled)
}

func TestTrigger_FailuresAreSkipped(t *testing.T) {
	c := NewCenter(nil)
	var reached bool
	c.Register("ev", 0, "err", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return "garbage", errors.New("some error")
	})
	c.Register("ev", 1, "boom", func(context.Context, string, interface{}) (interface{}, error) {
		panic("plugin bug")
	})
	c.Register("ev", 2, "last", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		reached = true
		return d, nil
	})
	out, err := c.Trigger(context.Background(), "ev", "data")
	require.NoError(t, err)
	assert.True(t, reached)
	assert.Equal(t, "data", out, "a failed handler must not replace the payload")
}

func TestUnregister(t *testing.T) {
	c := NewCenter(nil)
	var c1, c2 bool
	c.Register("ev", 0, "h1", func(_ context.Context, _ string, d interface{}) (interface{}, error) { c1 = true; return d, nil })
	c.Register("ev", 1, "h2", func(_ context.Context, _ string, d interface{}) (interface{}, error) { c2 = true; return d, nil })
	c.Unregister("ev", "h1")
	c.Trigger(context.Background(), "ev", nil)
	assert.False(t, c1)
	assert.True(t, c2)
	assert.Equal(t, 1, c.Count("ev"))
}

func TestUnregisterAll(t *testing.T) {
	c := NewCenter(nil)
	c.Register(BattleStart, 0, "plugin", pass(nil))
	c.Register(BattleEnd, 0, "plugin", pass(nil))
	c.Register(BattleEnd, 1, "other", pass(nil))
	c.UnregisterAll("plugin")
	assert.Equal(t, 0, c.Count(BattleStart))
	assert.Equal(t, 1, c.Count(BattleEnd))
}
