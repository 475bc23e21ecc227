package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/chat"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

var errBlankPrompt = errors.New("prompt file is blank")

// PromptStore serves system prompts from prompts/<name>.txt. A missing or
// blank file falls back to the built-in prompt of that name.
//
// The directory is populated with the defaults and a README on the first
// Load. A cached prompt is re-read when its file's size or mtime changes,
// so edits reach a running TUI or MCP server without a restart.
type PromptStore struct {
	dir      string
	defaults map[string]string

	setup    sync.Once
	setupErr error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	size    int64
	modTime time.Time
}

// NewPromptStore uses dir, or <DefaultDir>/prompts when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{
		dir:      dir,
		defaults: chat.DefaultPrompts(),
		cache:    make(map[string]cachedPrompt),
	}, nil
}

func (s *PromptStore) Dir() string { return s.dir }

func (s *PromptStore) Load(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid prompt name %q", name)
	}
	s.setup.Do(func() { s.setupErr = s.materialise() })

	text, err := s.read(name)
	if err == nil {
		return text, nil
	}
	if def, ok := s.defaults[name]; ok {
		return def, nil
	}
	if s.setupErr != nil {
		return "", fmt.Errorf("prompt store init failed: %w", s.setupErr)
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

// read returns the trimmed file content, from cache while the file is
// unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		delete(s.cache, name)
		return "", errBlankPrompt
	}
	s.cache[name] = cachedPrompt{text: text, size: info.Size(), modTime: info.ModTime()}
	return text, nil
}

// Reload forgets every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

const promptReadme = `# sercha-rag prompts

System prompts sent to the generation backend. Edits are picked up on the
next question; delete a file to get its default back.

- rag_system.txt: grounded answers. Keep exactly one %s; it receives the
  numbered context blocks. Without it the context is appended at the end.
- nlp_system.txt: direct answers. No placeholders.
`

// materialise writes any missing default prompt files and the README.
// Existing files are never touched.
func (s *PromptStore) materialise() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files := map[string]string{"README.md": promptReadme}
	for name, text := range s.defaults {
		files[name+".txt"] = text
	}
	for file, content := range files {
		err := writeIfMissing(filepath.Join(s.dir, file), content)
		if err != nil {
			return fmt.Errorf("create %s: %w", file, err)
		}
	}
	return nil
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
