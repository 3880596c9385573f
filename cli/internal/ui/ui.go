package ui

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/pgquery/runtime/types"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	InfoColor      = lipgloss.Color("#00D9FF")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	// NullStyle marks SQL NULL in table output
	NullStyle = color.New(color.Faint)
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Printer writes command output in the selected format
type Printer struct {
	out         io.Writer
	err         io.Writer
	format      string
	interactive bool
}

// NewPrinter creates a printer. Decorations such as spinners are only
// shown when out is a color-capable terminal.
func NewPrinter(out, errOut io.Writer, format string) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{
		out:         out,
		err:         errOut,
		format:      format,
		interactive: out == io.Writer(os.Stdout) && !color.NoColor,
	}
}

// Format returns the output format
func (p *Printer) Format() string {
	return p.format
}

// Out returns the writer for command results
func (p *Printer) Out() io.Writer {
	return p.out
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.err, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.err, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.err, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Rows prints a result set as a table or a JSON array
func (p *Printer) Rows(rows []types.Row) error {
	if p.format == FormatJSON {
		if rows == nil {
			rows = []types.Row{}
		}
		return p.JSON(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(p.out, SecondaryStyle.Render("(0 rows)"))
		return nil
	}

	table, err := RenderTable(rows)
	if err != nil {
		return err
	}
	fmt.Fprint(p.out, table)
	fmt.Fprintln(p.out, SecondaryStyle.Render(rowCount(len(rows))))
	return nil
}

// Row prints a single row, or nothing found when row is nil
func (p *Printer) Row(row *types.Row) error {
	if p.format == FormatJSON {
		if row == nil {
			return p.JSON(nil)
		}
		return p.JSON(row)
	}
	if row == nil {
		fmt.Fprintln(p.out, SecondaryStyle.Render("(no row)"))
		return nil
	}
	return p.Rows([]types.Row{*row})
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Markdown renders markdown content for the terminal
func (p *Printer) Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(p.out, out)
	return nil
}

// Spinner starts a spinner on the error stream. It returns nil when output
// is not interactive; Stop is safe to call on the result either way.
func (p *Printer) Spinner(message string) *Spinner {
	if !p.interactive || p.format == FormatJSON {
		return &Spinner{}
	}
	sp, err := pterm.DefaultSpinner.WithWriter(p.err).WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return &Spinner{}
	}
	return &Spinner{sp: sp}
}

// Spinner wraps an optional pterm spinner
type Spinner struct {
	sp *pterm.SpinnerPrinter
}

// Stop stops the spinner if one is running
func (s *Spinner) Stop() {
	if s.sp != nil {
		_ = s.sp.Stop()
	}
}

// RenderTable renders rows with pterm using the first row's columns as
// the header
func RenderTable(rows []types.Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	data := pterm.TableData{rows[0].Columns()}
	for _, row := range rows {
		values := row.Values()
		cells := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				cells[i] = NullStyle.Sprint("NULL")
				continue
			}
			cells[i] = FormatValue(v)
		}
		data = append(data, cells)
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// FormatValue renders a column value for display
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return `\x` + hex.EncodeToString(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05.999999999Z07:00")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
