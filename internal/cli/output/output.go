// Package output renders command results as styled text, markdown, or
// JSON. Mode auto picks styled text on a terminal and markdown when the
// output is piped, so scripts and agents get a parseable format without
// asking for it.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Modes lists the accepted --output values.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}

// Renderer writes command output in the selected mode. Results go to
// out; progress and status chatter go to errOut so piped output stays
// clean.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	tty    bool
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		tty:    isTerminal(out),
		styles: newStyles(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

// EffectiveMode resolves ModeAuto to text on a terminal and markdown
// otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode == ModeAuto || r.mode == "" {
		if r.tty {
			return ModeText
		}
		return ModeMarkdown
	}
	return r.mode
}

// IsTTY reports whether the output writer is an interactive terminal.
func (r *Renderer) IsTTY() bool {
	return r.tty
}

// Writer returns the result writer, for encoders that stream directly.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the status writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Styles returns the style set matched to the output terminal.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

// Header prints a styled section header. Level 1 is the page title,
// higher levels are subsections.
func (r *Renderer) Header(level int, text string) {
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	fmt.Fprintln(r.out, style.Render(text))
}

// Success prints a green check line to the status writer.
func (r *Renderer) Success(msg string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.styles.StatusSuccess.String(), r.styles.Success.Render(msg))
}

// Warning prints a yellow warning line to the status writer.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.styles.Warning.Render("!"), r.styles.Warning.Render(msg))
}

// Error prints a red failure line to the status writer.
func (r *Renderer) Error(msg string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.styles.StatusFailed.String(), r.styles.Error.Render(msg))
}

// Muted prints a dimmed line to the status writer.
func (r *Renderer) Muted(msg string) {
	fmt.Fprintln(r.errOut, r.styles.Muted.Render(msg))
}

// StatusLine prints an indented per-item status row, e.g. for each file
// touched by a load.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon := r.styles.StatusSuccess.String()
	if status != "success" {
		icon = r.styles.StatusFailed.String()
	}
	line := fmt.Sprintf("  %s %s", icon, name)
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	fmt.Fprintln(r.out, line)
}

// JSON writes v to the result writer as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
