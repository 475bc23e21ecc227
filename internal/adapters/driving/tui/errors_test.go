package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	assert.EqualError(t, ErrMissingQueryService, "tui: query service is required")
	assert.EqualError(t, ErrInvalidPorts, "tui: invalid ports configuration")
	assert.NotErrorIs(t, ErrMissingQueryService, ErrInvalidPorts)
}
