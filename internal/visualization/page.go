package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/nvandessel/snowball/internal/session"
)

// pageData holds data passed to the HTML template.
// StateJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
// The SVG fields come from the svg package, which escapes all text and
// attribute values.
type pageData struct {
	Title      string
	StateJSON  template.JS
	GraphSVG   template.HTML
	TotalChart template.HTML
	NewChart   template.HTML
}

// RenderPage produces the demo page for the current session state.
func RenderPage(ctl *session.Controller) ([]byte, error) {
	state, err := json.Marshal(stateResponse{
		Session: ctl.Snapshot(),
		Samples: ctl.Samples(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("index").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	// Keyword text is user input; keep </script> from breaking out.
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, state)

	data := pageData{
		Title:      "Snowball Sampling",
		StateJSON:  template.JS(escaped.String()),
		GraphSVG:   template.HTML(ctl.GraphSVG()),
		TotalChart: template.HTML(ctl.TotalChartSVG()),
		NewChart:   template.HTML(ctl.NewChartSVG()),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}
