// Package output renders analysis reports as text, markdown, JSON or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

var formatNames = map[string]Format{
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"toon":     FormatTOON,
}

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	if f, ok := formatNames[strings.ToLower(s)]; ok {
		return f
	}
	return FormatText
}

// Renderable is a report that can render itself as text or markdown and
// expose its data for JSON and TOON encoding.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes Renderable reports, or plain data, in one format.
type Formatter struct {
	format  Format
	w       io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to the file at path
// when path is non-empty. File output is never colored.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	if path == "" {
		return NewWriterFormatter(os.Stdout, format, colored), nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	f := NewWriterFormatter(file, format, false)
	f.closer = file
	return f, nil
}

// NewWriterFormatter creates a formatter writing to w.
func NewWriterFormatter(w io.Writer, format Format, colored bool) *Formatter {
	return &Formatter{format: format, w: w, colored: colored}
}

// Format returns the configured format.
func (f *Formatter) Format() Format { return f.format }

// Colored reports whether text output uses color.
func (f *Formatter) Colored() bool { return f.colored }

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Output writes data in the configured format. Renderable values render
// themselves for text and markdown; everything else is encoded.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.encode(data)
	}
	switch f.format {
	case FormatText:
		return r.RenderText(f.w, f.colored)
	case FormatMarkdown:
		return r.RenderMarkdown(f.w)
	default:
		return f.encode(r.RenderData())
	}
}

// encode writes data as TOON, as fenced JSON for markdown, and as indented
// JSON otherwise.
func (f *Formatter) encode(data any) error {
	if f.format == FormatTOON {
		out, err := MarshalTOON(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.w, out)
		return err
	}

	fenced := f.format == FormatMarkdown
	if fenced {
		fmt.Fprintln(f.w, "```json")
	}
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	if fenced {
		fmt.Fprintln(f.w, "```")
	}
	return nil
}

// MarshalTOON encodes data as TOON with two-space indentation.
func MarshalTOON(data any) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", fmt.Errorf("encoding toon: %w", err)
	}
	return string(out), nil
}

// Status messages. Plain output prefixes warnings and errors so they stay
// distinguishable without color.

func (f *Formatter) say(c color.Attribute, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if f.colored {
		color.New(c).Fprintln(f.w, msg)
		return
	}
	fmt.Fprintln(f.w, prefix+msg)
}

func (f *Formatter) Success(format string, args ...any) { f.say(color.FgGreen, "", format, args...) }
func (f *Formatter) Warning(format string, args ...any) { f.say(color.FgYellow, "WARNING: ", format, args...) }
func (f *Formatter) Error(format string, args ...any)   { f.say(color.FgRed, "ERROR: ", format, args...) }
func (f *Formatter) Info(format string, args ...any)    { f.say(color.FgCyan, "", format, args...) }
