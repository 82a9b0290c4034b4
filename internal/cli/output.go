package cli

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// quoteRow is the structured form of a quote. Index is -1 when the quote is
// not addressed by position.
type quoteRow struct {
	Index    int    `json:"index"        yaml:"index"`
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Text     string `json:"text"         yaml:"text"`
	Category string `json:"category"     yaml:"category"`
}

func newQuoteRow(index int, q domain.Quote) quoteRow {
	return quoteRow{Index: index, ID: q.ID, Text: q.Text, Category: q.Category}
}

func newQuoteRows(items []app.IndexedQuote) []quoteRow {
	rows := make([]quoteRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, newQuoteRow(it.Index, it.Quote))
	}

	return rows
}

// render writes value in the selected structured format, or calls table
// with a tab-aligned writer.
func render(deps commandDeps, value any, table func(io.Writer) error) error {
	switch deps.globals.Output {
	case outputJSON:
		return printJSON(deps.out, value)
	case outputYAML:
		return printYAML(deps.out, value)
	}

	tw := tabwriter.NewWriter(deps.out, 0, 4, 2, ' ', 0)
	if err := table(tw); err != nil {
		return err
	}

	return tw.Flush()
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(value)
}

func printYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(value); err != nil {
		return err
	}

	return enc.Close()
}
