// Package selector decides which metadata field holds the generation
// parameters and turns it into a Result.
package selector

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/bjyitu/aiexif/internal/parser"
)

// Known field names.
const (
	FieldParameters  = "parameters"
	FieldComment     = "Comment"
	FieldDescription = "Description"
	FieldUserComment = "UserComment"
	FieldPrompt      = "prompt"
	FieldWorkflow    = "workflow"
)

// KnownFields lists the field names in lookup priority order.
var KnownFields = []string{
	FieldParameters,
	FieldComment,
	FieldDescription,
	FieldUserComment,
	FieldPrompt,
	FieldWorkflow,
}

// A value is sniffed as a parameters block when it contains all of these.
var sniffMarkers = []string{"Steps: ", "Sampler: "}

// Selection is the field chosen by Select.
type Selection struct {
	Name       string
	Raw        string
	IsWorkflow bool
	Sniffed    bool
}

// Select returns the first known field present in fields. When none is
// present it falls back to sniffing every value, visiting names in sorted
// order.
func Select(fields map[string]string) (Selection, bool) {
	for _, name := range KnownFields {
		if raw, ok := fields[name]; ok {
			return Selection{Name: name, Raw: raw, IsWorkflow: name == FieldWorkflow}, true
		}
	}
	return sniff(fields)
}

// LooksLikeParameters reports whether value carries the sniffing markers.
func LooksLikeParameters(value string) bool {
	for _, m := range sniffMarkers {
		if !strings.Contains(value, m) {
			return false
		}
	}
	return true
}

func sniff(fields map[string]string) (Selection, bool) {
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if raw := fields[name]; LooksLikeParameters(raw) {
			return Selection{Name: name, Raw: raw, Sniffed: true}, true
		}
	}
	return Selection{}, false
}

// Kind tags the variant held by a Result.
type Kind int

const (
	KindNotFound Kind = iota
	KindParameters
	KindFields
)

func (k Kind) String() string {
	switch k {
	case KindParameters:
		return "parameters"
	case KindFields:
		return "fields"
	default:
		return "not_found"
	}
}

// Entry is one extracted known field. Value is the raw string, or the decoded
// JSON document for a workflow field that decoded cleanly.
type Entry struct {
	Name  string
	Raw   string
	Value any
	// DecodeErr is set when a workflow field failed to decode. The raw
	// string is kept in Value.
	DecodeErr error
}

// Result is the outcome of Extract.
type Result struct {
	Kind Kind
	// Source names the field the parameters were parsed from.
	Source     string
	Sniffed    bool
	Parameters parser.ParsedParameters
	Entries    []Entry
}

// Extract selects the generation metadata from fields.
//
// A "parameters" field is parsed and returned immediately. Otherwise every
// known field present is returned as an entry, with the workflow decoded as
// JSON when possible. When no known field is present the values are sniffed
// for a parameters block.
func Extract(fields map[string]string) Result {
	var entries []Entry
	for _, name := range KnownFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if name == FieldParameters {
			slog.Debug("selected parameters field", "field", name)
			return Result{Kind: KindParameters, Source: name, Parameters: parser.ParseParameters(raw)}
		}
		entries = append(entries, newEntry(name, raw))
	}
	if len(entries) > 0 {
		return Result{Kind: KindFields, Entries: entries}
	}

	if sel, ok := sniff(fields); ok {
		slog.Debug("sniffed parameters field", "field", sel.Name)
		return Result{
			Kind:       KindParameters,
			Source:     sel.Name,
			Sniffed:    true,
			Parameters: parser.ParseParameters(sel.Raw),
		}
	}
	return Result{Kind: KindNotFound}
}

func newEntry(name, raw string) Entry {
	e := Entry{Name: name, Raw: raw, Value: raw}
	if name != FieldWorkflow {
		return e
	}
	v, err := parser.DecodeWorkflow(raw)
	if err != nil {
		slog.Debug("keeping raw workflow", "error", err)
		e.DecodeErr = err
		return e
	}
	e.Value = v
	return e
}
