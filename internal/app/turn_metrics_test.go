package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/internal/chat"
)

type stubTurnSender struct {
	result *chat.TurnResult
	err    error
}

func (s *stubTurnSender) SendTurn(_ context.Context, _, _, _ string) (*chat.TurnResult, error) {
	return s.result, s.err
}

func TestTurnMetricsCountsOutcomes(t *testing.T) {
	sender := &stubTurnSender{result: &chat.TurnResult{}}
	tm := newTurnMetrics(sender)

	_, err := tm.SendTurn(context.Background(), "u1", "conv-1", "hi")
	require.NoError(t, err)

	sender.err = errors.New("completion provider: boom")
	_, err = tm.SendTurn(context.Background(), "u1", "conv-1", "hi")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(tm.turns.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.turns.WithLabelValues("failure")))
}
