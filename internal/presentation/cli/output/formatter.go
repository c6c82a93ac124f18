// Package output provides terminal output formatting for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formatter writes formatted CLI output.
type Formatter struct {
	writer io.Writer
	format Format
	color  bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// NewFormatter creates a formatter writing to stdout by default.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{
		writer: os.Stdout,
		format: FormatText,
		color:  true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithWriter sets the output destination.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) { f.writer = w }
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) { f.format = format }
}

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// Format returns the active output format.
func (f *Formatter) Format() Format { return f.format }

// Println writes a formatted line.
func (f *Formatter) Println(format string, args ...any) error {
	_, err := fmt.Fprintf(f.writer, format+"\n", args...)
	return err
}

// Success writes a line in green.
func (f *Formatter) Success(format string, args ...any) error {
	return f.Println(f.colorize(fmt.Sprintf(format, args...), colorGreen))
}

// Error writes a line in red.
func (f *Formatter) Error(format string, args ...any) error {
	return f.Println(f.colorize(fmt.Sprintf(format, args...), colorRed))
}

// Warning writes a line in yellow.
func (f *Formatter) Warning(format string, args ...any) error {
	return f.Println(f.colorize(fmt.Sprintf(format, args...), colorYellow))
}

// Info writes a line in cyan.
func (f *Formatter) Info(format string, args ...any) error {
	return f.Println(f.colorize(fmt.Sprintf(format, args...), colorCyan))
}

// Bold wraps text in a bold escape when colors are on.
func (f *Formatter) Bold(text string) string {
	return f.colorize(text, colorBold)
}

// Table renders rows with aligned columns.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	printRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	printRow(headers)
	for _, row := range rows {
		printRow(row)
	}
	return w.Flush()
}

// JSON writes the value as indented JSON.
func (f *Formatter) JSON(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func (f *Formatter) colorize(text, color string) string {
	if !f.color {
		return text
	}
	return color + text + colorReset
}
