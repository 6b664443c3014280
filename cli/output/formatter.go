// Package output provides output formatting for the sizesnap CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/fluxbase-eu/sizesnap/cli/util"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", s)
	}
}

// Formatter formats output in various formats
type Formatter struct {
	Format    Format
	NoHeaders bool
	Quiet     bool
	Writer    io.Writer
	ErrWriter io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(format Format, noHeaders, quiet bool) *Formatter {
	return &Formatter{
		Format:    format,
		NoHeaders: noHeaders,
		Quiet:     quiet,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// Print outputs data in the configured format
func (f *Formatter) Print(data interface{}) error {
	if f.Quiet {
		return nil
	}

	switch f.Format {
	case FormatYAML:
		return f.printYAML(data)
	default:
		return f.printJSON(data)
	}
}

func (f *Formatter) printJSON(data interface{}) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(f.Writer)
	encoder.SetIndent(2)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(data)
}

// TableData represents tabular data for table output
type TableData struct {
	Headers []string
	Rows    [][]string
}

// PrintTable prints formatted table output
func (f *Formatter) PrintTable(data TableData) {
	if f.Quiet {
		return
	}

	table := tablewriter.NewWriter(f.Writer)

	if !f.NoHeaders && len(data.Headers) > 0 {
		table.SetHeader(data.Headers)
	}

	// Configure table style
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(data.Rows)
	table.Render()
}

// PrintSnapshot prints a snapshot, one row per file in table mode. JSON output
// uses the snapshot file encoding.
func (f *Formatter) PrintSnapshot(snap snapshot.Snapshot) error {
	if f.Quiet {
		return nil
	}

	switch f.Format {
	case FormatJSON:
		data, err := snapshot.Encode(snap)
		if err != nil {
			return err
		}
		_, err = f.Writer.Write(data)
		return err
	case FormatYAML:
		return f.printYAML(snap)
	}

	data := TableData{
		Headers: []string{"FILE", "BUNDLED", "MINIFIED", "GZIPPED", "TREESHAKED MINIMAL", "TREESHAKED GRAPH"},
	}
	for _, file := range snap.Files() {
		rec := snap[file]
		minimal, graph := "-", "-"
		if rec.Treeshaked != nil {
			minimal = util.FormatBytes(rec.Treeshaked.Minimal.Code)
			if imports := rec.Treeshaked.Minimal.ImportStatements; imports != nil {
				minimal += fmt.Sprintf(" (imports %s)", util.FormatBytes(*imports))
			}
			graph = util.FormatBytes(rec.Treeshaked.Graph.Code)
		}
		data.Rows = append(data.Rows, []string{
			file,
			util.FormatBytes(rec.Bundled),
			util.FormatBytes(rec.Minified),
			util.FormatBytes(rec.Gzipped),
			minimal,
			graph,
		})
	}
	f.PrintTable(data)
	return nil
}

// DiffEntry is the structured form of one snapshot change.
type DiffEntry struct {
	File  string `json:"file" yaml:"file"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Kind  string `json:"kind" yaml:"kind"`
	Old   any    `json:"old,omitempty" yaml:"old,omitempty"`
	New   any    `json:"new,omitempty" yaml:"new,omitempty"`
}

// DiffEntries flattens a diff into one entry per change.
func DiffEntries(diff snapshot.Diff) []DiffEntry {
	entries := make([]DiffEntry, 0, len(diff.Changes))
	for _, change := range diff.Changes {
		entries = append(entries, DiffEntry{
			File:  change.File,
			Field: strings.Join(change.Path, "."),
			Kind:  string(change.Kind),
			Old:   change.Old,
			New:   change.New,
		})
	}
	return entries
}

// PrintDiff prints the differences between two snapshots
func (f *Formatter) PrintDiff(diff snapshot.Diff) error {
	if f.Quiet {
		return nil
	}

	if f.Format != FormatTable {
		return f.Print(DiffEntries(diff))
	}

	if diff.Empty() {
		f.PrintSuccess("Snapshots match")
		return nil
	}

	data := TableData{Headers: []string{"FILE", "FIELD", "CHANGE", "OLD", "NEW"}}
	for _, entry := range DiffEntries(diff) {
		data.Rows = append(data.Rows, []string{
			entry.File,
			entry.Field,
			entry.Kind,
			formatValue(entry.Old),
			formatValue(entry.New),
		})
	}
	f.PrintTable(data)
	return nil
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "-"
	case float64:
		return util.FormatBytes(int(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(data)
	}
}

// PrintSuccess prints a success message
func (f *Formatter) PrintSuccess(message string) {
	if f.Quiet {
		return
	}
	_, _ = fmt.Fprintln(f.Writer, message)
}

// PrintError prints an error message
func (f *Formatter) PrintError(message string) {
	_, _ = fmt.Fprintln(f.ErrWriter, "Error:", message)
}

// PrintWarning prints a warning message
func (f *Formatter) PrintWarning(message string) {
	if f.Quiet {
		return
	}
	_, _ = fmt.Fprintln(f.ErrWriter, "Warning:", message)
}
