package parser

import (
	"strings"
)

const (
	// NegativePromptMarker separates the prompt from the negative prompt.
	NegativePromptMarker = "Negative prompt: "
	// StepsMarker starts the parameter tail. It is part of the tail, so the
	// first parameter is always Steps.
	StepsMarker = "Steps:"

	entrySeparator = ", "
)

// ParsedParameters is the structured form of a "parameters" text block.
type ParsedParameters struct {
	Prompt     string
	Parameters Params

	negative *string
}

// Negative returns the negative prompt and whether the input had one.
func (p ParsedParameters) Negative() (string, bool) {
	if p.negative == nil {
		return "", false
	}
	return *p.negative, true
}

// Pair is a single presentation entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs flattens the result into prompt, negative_prompt (when present) and
// then every parameter in order.
func (p ParsedParameters) Pairs() []Pair {
	pairs := make([]Pair, 0, p.Parameters.Len()+2)
	pairs = append(pairs, Pair{Key: "prompt", Value: p.Prompt})
	if neg, ok := p.Negative(); ok {
		pairs = append(pairs, Pair{Key: "negative_prompt", Value: neg})
	}
	for k, v := range p.Parameters.All() {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return pairs
}

// ParseParameters splits a generation parameters block into prompt, negative
// prompt and the comma separated "Key: value" list that starts at "Steps:".
//
// It never fails. Entries without a colon are dropped, which also drops the
// continuation of any value that itself contains ", ".
func ParseParameters(raw string) ParsedParameters {
	var (
		res  ParsedParameters
		tail string
	)
	if before, after, found := strings.Cut(raw, NegativePromptMarker); found {
		res.Prompt = strings.TrimSpace(before)
		var negative string
		negative, tail = splitSteps(after)
		negative = strings.TrimSpace(negative)
		res.negative = &negative
	} else {
		var prompt string
		prompt, tail = splitSteps(raw)
		res.Prompt = strings.TrimSpace(prompt)
	}
	res.Parameters = parseTail(tail)
	return res
}

// splitSteps cuts s before the first StepsMarker. The marker stays in tail.
func splitSteps(s string) (head, tail string) {
	i := strings.Index(s, StepsMarker)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseTail(tail string) Params {
	var params Params
	if tail == "" {
		return params
	}
	for _, entry := range strings.Split(tail, entrySeparator) {
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		params.set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return params
}
