package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lewisedginton/persona_chatbot/internal/chat"
)

// turnMetrics wraps the chat service and counts turn outcomes.
type turnMetrics struct {
	next  httpTurnSender
	turns *prometheus.CounterVec
}

type httpTurnSender interface {
	SendTurn(ctx context.Context, userID, conversationID, message string) (*chat.TurnResult, error)
}

func newTurnMetrics(next httpTurnSender) *turnMetrics {
	return &turnMetrics{
		next: next,
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Conversation turns processed, partitioned by outcome.",
		}, []string{"outcome"}),
	}
}

func (t *turnMetrics) collector() prometheus.Collector {
	return t.turns
}

func (t *turnMetrics) SendTurn(ctx context.Context, userID, conversationID, message string) (*chat.TurnResult, error) {
	result, err := t.next.SendTurn(ctx, userID, conversationID, message)
	if err != nil {
		t.turns.WithLabelValues("failure").Inc()
		return nil, err
	}
	t.turns.WithLabelValues("success").Inc()
	return result, nil
}
