package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/snowball/internal/discovery"
)

// Export file names.
const (
	JSONFileName = "snowball-sampling-results.json"
	CSVFileName  = "snowball-sampling-results.csv"
)

// exportTimeLayout matches JavaScript's Date.toISOString.
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// CSVHeader is the header row of the CSV export.
var CSVHeader = []string{"Keyword", "Round", "Type", "Related Keywords", "Example"}

// Export is the JSON export document.
type Export struct {
	SeedKeywords       []string      `json:"seedKeywords"`
	DiscoveredKeywords ExportRecords `json:"discoveredKeywords"`
	CurrentRound       int           `json:"currentRound"`
	ExportDate         string        `json:"exportDate"`
}

// ExportRecord is one keyword entry of an export.
type ExportRecord struct {
	ID string
	discovery.Record
}

// ExportRecords marshals as a JSON object keyed by keyword, preserving
// order.
type ExportRecords []ExportRecord

// MarshalJSON writes the records as an object in slice order.
func (rs ExportRecords) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Record)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of records, keeping document order.
func (rs *ExportRecords) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("discoveredKeywords: expected object")
	}
	var out ExportRecords
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("discoveredKeywords: expected key")
		}
		var r discovery.Record
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("discoveredKeywords[%q]: %w", key, err)
		}
		out = append(out, ExportRecord{ID: key, Record: r})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*rs = out
	return nil
}

// Export builds the export document for the current state.
func (c *Controller) Export() Export {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exportLocked()
}

func (c *Controller) exportLocked() Export {
	e := Export{
		SeedKeywords: c.state.Seeds(),
		CurrentRound: c.state.Round(),
		ExportDate:   c.now().UTC().Format(exportTimeLayout),
	}
	if e.SeedKeywords == nil {
		e.SeedKeywords = []string{}
	}
	for _, id := range c.state.IDs() {
		r, _ := c.state.Record(id)
		e.DiscoveredKeywords = append(e.DiscoveredKeywords, ExportRecord{ID: id, Record: r})
	}
	return e
}

// ExportJSON writes the export document indented by two spaces.
func (c *Controller) ExportJSON(w io.Writer) error {
	data, err := json.MarshalIndent(c.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON export: %w", err)
	}
	return nil
}

// ExportCSV writes one row per known keyword. Every cell is quoted and
// rows are separated by a bare newline.
func (c *Controller) ExportCSV(w io.Writer) error {
	e := c.Export()

	rows := make([]string, 0, len(e.DiscoveredKeywords)+1)
	rows = append(rows, csvRow(CSVHeader))
	for _, r := range e.DiscoveredKeywords {
		example := ""
		if len(r.Examples) > 0 {
			example = r.Examples[0]
		}
		rows = append(rows, csvRow([]string{
			r.ID,
			strconv.Itoa(r.Round),
			string(r.Type),
			strings.Join(r.Related, "; "),
			example,
		}))
	}

	if _, err := io.WriteString(w, strings.Join(rows, "\n")); err != nil {
		return fmt.Errorf("writing CSV export: %w", err)
	}
	return nil
}

func csvRow(cells []string) string {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// ParseExportTime parses an export date.
func ParseExportTime(s string) (time.Time, error) {
	return time.Parse(exportTimeLayout, s)
}
