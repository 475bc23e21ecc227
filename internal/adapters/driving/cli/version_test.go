package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "release build", version: "v0.4.1"},
		{name: "development build", version: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cleanup := setupTestServices()
			defer cleanup()

			original := version
			SetVersion(tt.version)
			defer SetVersion(original)

			out, err := execute("version")

			require.NoError(t, err)
			assert.Equal(t, "sercha-rag "+tt.version+" ("+runtime.Version()+", "+runtime.GOOS+"/"+runtime.GOARCH+")\n", out)
		})
	}
}

func TestVersionCmd_SkipsBootstrap(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	called := false
	SetBootstrap(func(string) (*Services, func(), error) {
		called = true
		return &Services{}, func() {}, nil
	})
	defer SetBootstrap(nil)

	_, err := execute("version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("version", "extra")
	assert.Error(t, err)
}
