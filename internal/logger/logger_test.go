package logger

import (
	"bytes"
	"os"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output for one test and restores the defaults after it.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func(string, ...any)
		verbose bool
		want    string
	}{
		{name: "debug verbose", log: Debug, verbose: true, want: "[DEBUG] mode RAG\n"},
		{name: "debug quiet", log: Debug, verbose: false, want: ""},
		{name: "info verbose", log: Info, verbose: true, want: "[INFO] mode RAG\n"},
		{name: "info quiet", log: Info, verbose: false, want: ""},
		{name: "warn verbose", log: Warn, verbose: true, want: "[WARN] mode RAG\n"},
		{name: "warn quiet", log: Warn, verbose: false, want: ""},
		{name: "error verbose", log: Error, verbose: true, want: "[ERROR] mode RAG\n"},
		{name: "error quiet", log: Error, verbose: false, want: "[ERROR] mode RAG\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log("mode %s", "RAG")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Query")
	assert.Equal(t, "\n=== Query ===\n", buf.String())

	buf.Reset()
	SetVerbose(false)
	Section("Query")
	assert.Empty(t, buf.String())
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)

	done := Timed("query: retrieval")
	done()

	assert.Regexp(t, regexp.MustCompile(`^\[DEBUG\] query: retrieval took \S+\n$`), buf.String())
}

func TestTimed_Quiet(t *testing.T) {
	buf := capture(t, false)
	Timed("ingest: rebuild")()
	assert.Empty(t, buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("concurrent %d", i)
			_ = IsVerbose()
		}()
	}
	wg.Wait()
}
