package phase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
)

func TestOutcomeString(t *testing.T) {
	id := ident.New("db")

	ok := Outcome{ID: id, Phase: Start, OK: true, Duration: 12 * time.Millisecond}
	assert.Contains(t, ok.String(), "start ok")

	failed := Outcome{ID: id, Phase: Stop, Err: errors.New("boom")}
	assert.Contains(t, failed.String(), "stop failed")

	timedOut := Outcome{ID: id, Phase: Start, TimedOut: true}
	assert.Contains(t, timedOut.String(), "timed out")
}

func TestAggregateError(t *testing.T) {
	a := ident.New("a")
	b := ident.New("b")
	rootErr := errors.New("connection refused")
	rollbackErr := errors.New("stop hook failed")

	agg := NewAggregate(diag.CodeStartFailed, Start, []Outcome{
		{ID: a, Phase: Start, Err: rootErr, Context: ContextNormal},
		{ID: b, Phase: Stop, Err: rollbackErr, Context: ContextRollback},
	})

	t.Run("message lists every failure", func(t *testing.T) {
		msg := agg.Error()
		assert.Contains(t, msg, "start phase failed for 2 component(s)")
		assert.Contains(t, msg, "connection refused")
		assert.Contains(t, msg, "[rollback]")
	})

	t.Run("carries a stable code", func(t *testing.T) {
		assert.Equal(t, diag.CodeStartFailed, agg.DiagCode())
		assert.Equal(t, diag.CodeStartFailed, diag.CodeOf(agg))
		assert.Equal(t, Start, agg.Phase())
	})

	t.Run("root causes exclude rollback outcomes", func(t *testing.T) {
		roots := agg.RootCauses()
		require.Len(t, roots, 1)
		assert.Same(t, a, roots[0].ID)
		assert.Len(t, agg.Failed(), 2)
	})

	t.Run("unwrap exposes raw errors", func(t *testing.T) {
		assert.ErrorIs(t, agg, rootErr)
		assert.ErrorIs(t, agg, rollbackErr)
	})

	t.Run("errors.As finds it through wrapping", func(t *testing.T) {
		wrapped := errors.Join(errors.New("other"), agg)
		var got *AggregateError
		require.ErrorAs(t, wrapped, &got)
		assert.Same(t, agg, got)
	})
}
