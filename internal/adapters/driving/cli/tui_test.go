package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestTUICmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"tui"})
	require.NoError(t, err)
	assert.Equal(t, tuiCmd, cmd)

	mode := tuiCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "m", mode.Shorthand)
}

func TestTUICmd_InvalidMode(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("tui", "--mode", "both")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTUICmd_NoQueryService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)

	_, err := execute("tui")

	assert.ErrorContains(t, err, "starting TUI")
}
