package parser

import (
	"bytes"
	"iter"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// Params is an insertion ordered string map. Setting an existing key replaces
// its value and keeps its position.
type Params struct {
	keys   []string
	values map[string]string
}

func (p *Params) set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Params) Len() int {
	return len(p.keys)
}

func (p Params) Keys() []string {
	return slices.Clone(p.keys)
}

// All iterates the entries in insertion order.
func (p Params) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// String renders the entries back into "Key: value, Key: value" form.
func (p Params) String() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteString(entrySeparator)
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(p.values[k])
	}
	return b.String()
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
