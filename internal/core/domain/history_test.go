package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalise(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		expected PageRequest
	}{
		{"zero value", PageRequest{}, PageRequest{Page: 0, Size: DefaultPageSize}},
		{"negative page", PageRequest{Page: -1, Size: 5}, PageRequest{Page: 0, Size: 5}},
		{"oversized", PageRequest{Page: 2, Size: 1000}, PageRequest{Page: 2, Size: MaxPageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalise())
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, 40, PageRequest{Page: 2, Size: 20}.Offset())
}

func TestHistoryPage_TotalPages(t *testing.T) {
	assert.Equal(t, 3, (&HistoryPage{Total: 41, Size: 20}).TotalPages())
	assert.Equal(t, 0, (&HistoryPage{Total: 0, Size: 20}).TotalPages())
	assert.Equal(t, 0, (&HistoryPage{Total: 5}).TotalPages())
}

func TestHistoryStats_ComputePercentages(t *testing.T) {
	s := HistoryStats{TotalQueries: 4, NLPQueries: 1, RAGQueries: 3}
	s.ComputePercentages()
	assert.InDelta(t, 25.0, s.NLPPercentage, 1e-9)
	assert.InDelta(t, 75.0, s.RAGPercentage, 1e-9)

	empty := HistoryStats{}
	empty.ComputePercentages()
	assert.Zero(t, empty.NLPPercentage)
	assert.Zero(t, empty.RAGPercentage)
}
