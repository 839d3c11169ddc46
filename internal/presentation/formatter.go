package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatActions formats the action listing as JSON
func (f *Formatter) FormatActions(list ActionListDTO) error {
	return f.encode(list)
}

// FormatActionsTable renders the action listing as a table sorted by name.
func (f *Formatter) FormatActionsTable(list ActionListDTO) error {
	names := make([]string, 0, len(list.Actions))
	for name := range list.Actions {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		a := list.Actions[name]
		rows = append(rows, []string{a.Name, a.DataType, strings.Join(a.Fields, ", "), a.Description})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "DATA TYPE", "FIELDS", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(f.writer, "%s\n%d action(s)\n", t.String(), list.Count)
	return err
}

// FormatResult formats an action result as JSON
func (f *Formatter) FormatResult(result any) error {
	return f.encode(result)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
