package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapFormatsComponentMethodAction(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "Buffer", "Produce", "capacity check")

	assert.Equal(t, "Buffer.Produce: capacity check failed: boom", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "c", "m", "a"))
	assert.Nil(t, WrapFatal(nil, "c", "m", "a"))
}

func TestClassification(t *testing.T) {
	base := stderrors.New("boom")

	cases := []struct {
		err   error
		class ErrorClass
	}{
		{WrapTransient(base, "c", "m", "a"), ErrorTransient},
		{WrapConstruction(base, "c", "m", "a"), ErrorConstruction},
		{WrapUsage(base, "c", "m", "a"), ErrorUsage},
		{WrapFatal(base, "c", "m", "a"), ErrorFatal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.class, Classify(tc.err), tc.class.String())
	}

	assert.True(t, IsTransient(WrapTransient(base, "c", "m", "a")))
	assert.True(t, IsConstruction(WrapConstruction(base, "c", "m", "a")))
	assert.True(t, IsUsage(WrapUsage(base, "c", "m", "a")))
	assert.True(t, IsFatal(WrapFatal(base, "c", "m", "a")))

	assert.False(t, IsFatal(WrapUsage(base, "c", "m", "a")))
	assert.False(t, IsTransient(nil))
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := WrapFatal(stderrors.New("boom"), "c", "m", "a")
	outer := fmt.Errorf("outer context: %w", inner)

	assert.True(t, IsFatal(outer))
	assert.Equal(t, ErrorFatal, Classify(outer))
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := WrapUsage(
		fmt.Errorf("port %q: %w", "in", ErrInboxFull),
		"Inbox", "Push", "enqueue")

	assert.ErrorIs(t, err, ErrInboxFull)
	assert.True(t, IsUsage(err))
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "construction", ErrorConstruction.String())
	assert.Equal(t, "usage", ErrorUsage.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
}

func TestBackoffConfigConversion(t *testing.T) {
	bc := BackoffConfig{
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 3.0,
	}
	rc := bc.ToRetryConfig()

	assert.Equal(t, 0, rc.MaxAttempts, "starvation waits never give up")
	assert.Equal(t, time.Millisecond, rc.InitialDelay)
	assert.Equal(t, time.Second, rc.MaxDelay)
	assert.Equal(t, 3.0, rc.Multiplier)
	assert.True(t, rc.AddJitter)

	def := DefaultBackoffConfig()
	require.Greater(t, def.MaxDelay, def.InitialDelay)
}
