package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Lead: {{.lead_details}}, Context: {{.content}}", map[string]any{
		"lead_details": "Jane Doe",
		"content":      "report",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lead: Jane Doe, Context: report", out)
}

func TestRenderTemplateFastPath(t *testing.T) {
	out, err := RenderTemplate("no markers, braces like {\"a\": 1} are fine", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers, braces like {\"a\": 1} are fine", out)
}

func TestRenderTemplateTrimFunc(t *testing.T) {
	out, err := RenderTemplate(`{{trim .v}}`, map[string]any{"v": "  padded  "})
	require.NoError(t, err)
	assert.Equal(t, "padded", out)
}

func TestRenderTemplateParseError(t *testing.T) {
	_, err := RenderTemplate("{{.unclosed", nil)
	assert.Error(t, err)
}
