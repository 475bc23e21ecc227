package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	types    []string
	priority int
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Document: domain.Document{URI: raw.URI, Content: s.name}}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "fallback", types: []string{"text/plain"}, priority: 5})
	r.Register(&stubNormaliser{name: "special", types: []string{"text/plain"}, priority: 90})
	r.Register(&stubNormaliser{name: "generic", types: []string{"text/plain"}, priority: 50})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})

	require.NoError(t, err)
	assert.Equal(t, "special", result.Document.Content)
}

func TestRegistry_TieKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "first", types: []string{"text/csv"}, priority: 50})
	r.Register(&stubNormaliser{name: "second", types: []string{"text/csv"}, priority: 50})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/csv"})

	require.NoError(t, err)
	assert.Equal(t, "first", result.Document.Content)
}

func TestRegistry_MIMEParametersIgnored(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "html", types: []string{"text/html"}, priority: 50})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "Text/HTML; charset=utf-8"})

	require.NoError(t, err)
	assert.Equal(t, "html", result.Document.Content)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := Default()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "application/pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	assert.Empty(t, r.SupportedMIMETypes())
}

func TestDefault_SupportedMIMETypes(t *testing.T) {
	types := Default().SupportedMIMETypes()

	assert.Contains(t, types, "text/plain")
	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "text/html")
	assert.IsIncreasing(t, types)
}

func TestDefault_RoutesByType(t *testing.T) {
	r := Default()
	ctx := context.Background()

	tests := []struct {
		mime    string
		content string
		want    string
		format  string
	}{
		{"text/plain", "plain *text*", "plain *text*", "text"},
		{"text/markdown", "plain *text*", "plain text", "markdown"},
		{"text/html", "<p>plain <b>text</b></p>", "plain text", "html"},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			result, err := r.Normalise(ctx, &domain.RawDocument{URI: "doc", MIMEType: tt.mime, Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Document.Content)
			assert.Equal(t, tt.format, result.Document.Metadata["format"])
		})
	}
}
