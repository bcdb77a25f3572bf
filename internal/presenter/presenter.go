// Package presenter renders extraction results for the command line.
package presenter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/bjyitu/aiexif/internal/selector"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	Header          = "Extracted metadata:"
	NotFoundMessage = "No generation parameters found"
	ErrorPrefix     = "Error reading file: "
)

var ErrUnknownFormat = errors.New("unknown output format")

var (
	bold = color.New(color.Bold)
	red  = color.New(color.FgRed)
)

// ParseFormat maps a flag or config value to a Format. The empty string
// selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Render writes res to w.
func Render(w io.Writer, res selector.Result, f Format) error {
	switch f {
	case FormatText, "":
		return renderText(w, res)
	case FormatJSON:
		return writeJSON(w, toObject(res))
	case FormatYAML:
		return writeYAML(w, toObject(res))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// RenderError writes the user facing form of a read failure.
func RenderError(w io.Writer, cause error, f Format) error {
	switch f {
	case FormatText, "":
		if _, err := bold.Fprintln(w, Header); err != nil {
			return err
		}
		_, err := red.Fprintln(w, ErrorPrefix+cause.Error())
		return err
	case FormatJSON:
		return writeJSON(w, object{{Key: "error", Value: cause.Error()}})
	case FormatYAML:
		return writeYAML(w, object{{Key: "error", Value: cause.Error()}})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func renderText(w io.Writer, res selector.Result) error {
	var b strings.Builder
	bold.Fprintln(&b, Header)

	switch res.Kind {
	case selector.KindParameters:
		for _, p := range res.Parameters.Pairs() {
			fmt.Fprintf(&b, "%s: %s\n", p.Key, p.Value)
		}
	case selector.KindFields:
		for _, e := range res.Entries {
			writeTextEntry(&b, e.Name, e.Value)
		}
	default:
		b.WriteString(NotFoundMessage + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextEntry(b *strings.Builder, name string, value any) {
	nested, ok := value.(map[string]any)
	if !ok {
		fmt.Fprintf(b, "%s: %s\n", name, scalar(value))
		return
	}
	fmt.Fprintf(b, "%s:\n", name)
	for _, k := range slices.Sorted(maps.Keys(nested)) {
		fmt.Fprintf(b, "  %s: %s\n", k, scalar(nested[k]))
	}
}

// scalar formats a value on one line. Anything that is not a string is
// written as compact JSON.
func scalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

func toObject(res selector.Result) object {
	switch res.Kind {
	case selector.KindParameters:
		pairs := res.Parameters.Pairs()
		obj := make(object, 0, len(pairs))
		for _, p := range pairs {
			obj = append(obj, member{Key: p.Key, Value: p.Value})
		}
		return obj
	case selector.KindFields:
		obj := make(object, 0, len(res.Entries))
		for _, e := range res.Entries {
			obj = append(obj, member{Key: e.Name, Value: e.Value})
		}
		return obj
	default:
		return object{{Key: "message", Value: NotFoundMessage}}
	}
}

func writeJSON(w io.Writer, obj object) error {
	compact, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return fmt.Errorf("indent json: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

func writeYAML(w io.Writer, obj object) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(obj); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
