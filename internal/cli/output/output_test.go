package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		expected Mode
	}{
		{"explicit text", ModeText, ModeText},
		{"explicit markdown", ModeMarkdown, ModeMarkdown},
		{"explicit json", ModeJSON, ModeJSON},
		{"auto on non-terminal falls back to markdown", ModeAuto, ModeMarkdown},
		{"empty mode treated as auto", Mode(""), ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newBufferRenderer(tt.mode)
			assert.Equal(t, tt.expected, r.EffectiveMode())
		})
	}
}

func TestIsTTY_BufferIsNot(t *testing.T) {
	r, _, _ := newBufferRenderer(ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestPrintlnAndPrintf_GoToResultWriter(t *testing.T) {
	r, out, errOut := newBufferRenderer(ModeText)

	r.Println("hello")
	r.Printf("%d studies\n", 42)

	assert.Equal(t, "hello\n42 studies\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestStatusHelpers_GoToStatusWriter(t *testing.T) {
	r, out, errOut := newBufferRenderer(ModeText)

	r.Success("loaded")
	r.Warning("no manifest")
	r.Error("load failed")
	r.Muted("details")

	assert.Empty(t, out.String())
	status := errOut.String()
	assert.Contains(t, status, "loaded")
	assert.Contains(t, status, "no manifest")
	assert.Contains(t, status, "load failed")
	assert.Contains(t, status, "details")
}

// Styles built against a plain buffer must not emit escape codes.
func TestStyles_PlainOnNonTerminal(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeText)

	r.Header(1, "Corpus Status")
	r.Println(r.Styles().Muted.Render("3 studies"))

	assert.Equal(t, "Corpus Status\n3 studies\n", out.String())
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeText)

	r.StatusLine("annotations.tsv", "success", "4 rows")
	r.StatusLine("coordinates.tsv", "failed", "")

	lines := out.String()
	assert.Contains(t, lines, "annotations.tsv")
	assert.Contains(t, lines, "4 rows")
	assert.Contains(t, lines, "coordinates.tsv")
}

func TestJSON(t *testing.T) {
	r, out, _ := newBufferRenderer(ModeJSON)

	payload := map[string]any{"count": 3, "studies": []int64{1, 2, 3}}
	require.NoError(t, r.JSON(payload))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(3), decoded["count"])
	assert.Contains(t, out.String(), "  \"count\"", "output is indented")
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# Corpus", FormatHeader(1, "Corpus"))
	assert.Equal(t, "## Studies", FormatHeader(2, "Studies"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
}

func TestFormatKeyValue(t *testing.T) {
	assert.Equal(t, "- **Dialect:** sqlite", FormatKeyValue("Dialect", "sqlite"))
}

func TestModes(t *testing.T) {
	assert.Equal(t, []string{"auto", "text", "markdown", "json"}, Modes())
}
