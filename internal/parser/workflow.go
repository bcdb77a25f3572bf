package parser

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// WorkflowDecodeError is returned when a workflow field is not valid JSON.
type WorkflowDecodeError struct {
	Err error
}

func (e *WorkflowDecodeError) Error() string {
	return fmt.Sprintf("failed to parse workflow JSON: %v", e.Err)
}

func (e *WorkflowDecodeError) Unwrap() error {
	return e.Err
}

// DecodeWorkflow decodes the JSON text of a workflow field.
func DecodeWorkflow(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &WorkflowDecodeError{Err: err}
	}
	return v, nil
}

// WorkflowSummary describes the node graph of a workflow.
type WorkflowSummary struct {
	Nodes     int
	Links     int
	NodeTypes []string
}

// SummarizeWorkflow counts the nodes of a workflow and lists their distinct
// types in order of appearance. Both the editor format ({"nodes": [...]}) and
// the API prompt format ({"<id>": {"class_type": ...}}) are understood.
func SummarizeWorkflow(raw string) (WorkflowSummary, bool) {
	if !gjson.Valid(raw) {
		return WorkflowSummary{}, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return WorkflowSummary{}, false
	}

	var (
		summary WorkflowSummary
		seen    = make(map[string]struct{})
	)
	addType := func(t string) {
		summary.Nodes++
		if t == "" {
			return
		}
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			summary.NodeTypes = append(summary.NodeTypes, t)
		}
	}

	if nodes := doc.Get("nodes"); nodes.IsArray() {
		for _, node := range nodes.Array() {
			addType(node.Get("type").String())
		}
		summary.Links = int(doc.Get("links.#").Int())
		return summary, true
	}

	doc.ForEach(func(_, node gjson.Result) bool {
		if ct := node.Get("class_type"); ct.Exists() {
			addType(ct.String())
		}
		return true
	})
	return summary, summary.Nodes > 0
}
