package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	flags := mcpServeCmd.Flags()

	port := flags.Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)

	host := flags.Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "localhost", host.DefValue)

	assert.NotNil(t, flags.Lookup("read-only"))
}

func TestMCPServeCmd_Errors(t *testing.T) {
	t.Run("no query service", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		SetServices(nil)

		_, err := execute("mcp", "serve")
		assert.ErrorContains(t, err, "query service not configured")
	})

	t.Run("port out of range", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("mcp", "serve", "--port", "70000")
		assert.ErrorContains(t, err, "invalid port 70000")
	})
}
