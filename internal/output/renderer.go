package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/failguard/failguard/internal/entity"
)

// Result is one line's verdict from the offline pattern tester.
type Result struct {
	LineNo  int            `json:"line"`
	Text    string         `json:"text"`
	Outcome entity.Outcome `json:"outcome"`
}

// Summary aggregates a whole tester run.
type Summary struct {
	Lines   int            `json:"lines"`
	Matched int            `json:"matched"`
	Ignored int            `json:"ignored"`
	Invalid int            `json:"invalid"`
	PerIP   map[string]int `json:"per_ip,omitempty"`
}

// Renderer writes tester results to an output stream.
type Renderer interface {
	Render(res Result) error
	RenderSummary(sum Summary) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleMiss    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true) // gray
	styleMatch   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))              // green
	styleIgnored = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))             // yellow
	styleInvalid = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)  // red bold
	styleIP      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)   // cyan
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// TextRenderer prints per-line verdicts to the terminal with colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

// NewTextRendererTo returns a text Renderer writing to w.
func NewTextRendererTo(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(res Result) error {
	var line string
	switch res.Outcome.Kind {
	case entity.OutcomeIgnored:
		line = fmt.Sprintf("%4d  %s  %s", res.LineNo, styleIgnored.Render("IGNORE"), res.Text)
	case entity.OutcomeInvalidAddress:
		line = fmt.Sprintf("%4d  %s  %s", res.LineNo, styleInvalid.Render("BADIP "), res.Text)
	case entity.OutcomeNoMatch:
		line = fmt.Sprintf("%4d  %s  %s", res.LineNo, styleMiss.Render("MISS  "), styleMiss.Render(res.Text))
	default:
		line = fmt.Sprintf("%4d  %s  %s  %s", res.LineNo, styleMatch.Render("MATCH "), styleIP.Render(res.Outcome.IP), res.Text)
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func (r *TextRenderer) RenderSummary(sum Summary) error {
	if _, err := fmt.Fprintln(r.w, styleHeader.Render("Summary")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.w, "lines: %d  matched: %d  ignored: %d  invalid: %d\n",
		sum.Lines, sum.Matched, sum.Ignored, sum.Invalid)
	if err != nil {
		return err
	}
	for ip, n := range sum.PerIP {
		if _, err := fmt.Fprintf(r.w, "  %s  %d\n", styleIP.Render(ip), n); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each verdict as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to stdout.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(os.Stdout)}
}

// NewJSONRendererTo returns a JSON Renderer writing to w.
func NewJSONRendererTo(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(res Result) error {
	return r.enc.Encode(res)
}

func (r *JSONRenderer) RenderSummary(sum Summary) error {
	return r.enc.Encode(map[string]Summary{"summary": sum})
}
