package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		Attempts:   3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient(eris.New("service unavailable"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := eris.New("bad request")
	err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return Transient(eris.New("still down"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 5, BaseDelay: time.Second}, func(ctx context.Context) error {
		calls++
		cancel()
		return Transient(eris.New("flaky"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValReturnsValue(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", Transient(eris.New("timeout"), 504)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 2, calls)
}

func TestDoCallsOnRetry(t *testing.T) {
	var attempts []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}
	_ = Do(context.Background(), p, func(ctx context.Context) error {
		return Transient(eris.New("nope"), 503)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDelayCappedAtMax(t *testing.T) {
	p := Policy{
		BaseDelay:  time.Second,
		MaxDelay:   2 * time.Second,
		Multiplier: 10,
	}.withDefaults()
	assert.LessOrEqual(t, p.delay(5), 2*time.Second+time.Second/2)
}
