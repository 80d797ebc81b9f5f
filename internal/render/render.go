// Package render writes decoded rows for the command line, one row at a
// time so output streams while a scan is still running.
package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dbviewer/internal/viewer"

	"github.com/mattn/go-runewidth"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

// Writer receives rows in scan order.
type Writer interface {
	Write(family string, row viewer.Row) error
	Flush() error
}

// Options tune a Writer. Zero values mean a plain, uncut, uncolored output.
type Options struct {
	Width int  // text: cut lines to this many columns; 0 disables
	Color bool // pretty: ANSI colors
}

// TerminalOptions inspects f and returns Options suited to it: lines cut to
// the terminal width and colored JSON when f is a terminal.
func TerminalOptions(f *os.File) Options {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return Options{}
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	return Options{Width: width, Color: true}
}

// New returns a Writer for format ("text", "json" or "pretty").
func New(format string, w io.Writer, opts Options) (Writer, error) {
	bw := bufio.NewWriter(w)
	switch format {
	case "", "text":
		return &textWriter{w: bw, width: opts.Width}, nil
	case "json":
		return &jsonWriter{w: bw}, nil
	case "pretty":
		return &jsonWriter{w: bw, pretty: true, color: opts.Color}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

type textWriter struct {
	w     *bufio.Writer
	width int
}

func (t *textWriter) Write(_ string, row viewer.Row) error {
	line := row.Key + "\t" + row.Value
	if t.width > 0 {
		line = runewidth.Truncate(line, t.width, "…")
	}
	_, err := t.w.WriteString(line + "\n")
	return err
}

func (t *textWriter) Flush() error { return t.w.Flush() }

type jsonRow struct {
	Family string `json:"family"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

type jsonWriter struct {
	w      *bufio.Writer
	pretty bool
	color  bool
}

func (j *jsonWriter) Write(family string, row viewer.Row) error {
	data, err := json.Marshal(jsonRow{Family: family, Key: row.Key, Value: row.Value})
	if err != nil {
		return err
	}
	if j.pretty {
		data = pretty.Pretty(data)
		if j.color {
			data = pretty.Color(data, nil)
		}
	} else {
		data = append(data, '\n')
	}
	_, err = j.w.Write(data)
	return err
}

func (j *jsonWriter) Flush() error { return j.w.Flush() }
