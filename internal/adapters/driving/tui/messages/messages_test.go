package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewMenu, "menu"},
		{ViewAsk, "ask"},
		{ViewHistory, "history"},
		{ViewStats, "stats"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestAnswerReceived(t *testing.T) {
	t.Run("with result", func(t *testing.T) {
		msg := AnswerReceived{
			Question: "what is the refund policy?",
			Result:   &domain.QueryResult{Answer: "30 days", Mode: domain.QueryModeRAG},
		}
		assert.Equal(t, "30 days", msg.Result.Answer)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := AnswerReceived{Question: "q", Err: errors.New("backend down")}
		assert.Nil(t, msg.Result)
		assert.EqualError(t, msg.Err, "backend down")
	})
}

func TestStatsLoaded_PartialServices(t *testing.T) {
	msg := StatsLoaded{Index: &domain.IndexStats{DocumentCount: 3}}

	assert.Nil(t, msg.History)
	assert.Equal(t, 3, msg.Index.DocumentCount)
}
