package errs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromProtocolName(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"TimeoutError", KindTimeoutError},
		{"TargetClosedError", KindTargetClosed},
		{"SomethingElse", KindProtocolError},
	}
	for _, c := range cases {
		got := FromProtocolName(c.name, "boom")
		assert.Equal(t, c.want, got.Kind)
		assert.Equal(t, "boom", got.Message)
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := Wrap(KindTargetClosed, "connection lost", errors.New("EOF"))
	assert.True(t, errors.Is(err, TargetClosed))
	assert.False(t, errors.Is(err, TimeoutError))
}

func TestWithContextEnrichesMessage(t *testing.T) {
	base := New(KindElementNotFound, "no match")
	enriched := base.WithContext("click", "#submit", "")
	require.Error(t, enriched)
	assert.Contains(t, enriched.Error(), "click")
	assert.Contains(t, enriched.Error(), "#submit")
}

func TestAsFindsWrappedKind(t *testing.T) {
	inner := New(KindTimeoutError, "slow")
	wrapped := Wrap(KindProtocolError, "outer", inner)
	found, ok := As(wrapped, KindProtocolError)
	require.True(t, ok)
	assert.Equal(t, "outer", found.Message)

	found, ok = As(wrapped, KindTimeoutError)
	require.True(t, ok)
	assert.Equal(t, "slow", found.Message)
}

func TestNewAssertionTimeoutMessage(t *testing.T) {
	err := NewAssertionTimeout("#x", "be visible", 5*time.Second, 5*time.Second)
	assert.Equal(t, KindAssertionTime, err.Kind)
	assert.Contains(t, err.Error(), "#x")
	assert.Contains(t, err.Error(), "be visible")
}
