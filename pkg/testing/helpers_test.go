package testing

import (
	"context"
	"sync/atomic"
	stdtesting "testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitForCondition(t *stdtesting.T) {
	var calls atomic.Int32

	err := WaitForCondition(Context(t, time.Second), func() bool { return calls.Add(1) >= 3 }, time.Millisecond)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForConditionChecksImmediately(t *stdtesting.T) {
	err := WaitForCondition(Context(t, time.Second), func() bool { return true }, time.Hour)
	assert.NoError(t, err)
}

func TestWaitForConditionTimesOut(t *stdtesting.T) {
	err := WaitForCondition(Context(t, 10*time.Millisecond), func() bool { return false }, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContextEndsWithTest(t *stdtesting.T) {
	var ctx context.Context
	t.Run("inner", func(t *stdtesting.T) {
		ctx = Context(t, time.Hour)
		assert.NoError(t, ctx.Err())
	})
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
