package selector_test

import (
	"testing"

	"github.com/bjyitu/aiexif/internal/parser"
	"github.com/bjyitu/aiexif/internal/selector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPriority(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		want     selector.Selection
		notFound bool
	}{
		{
			name: "parameters wins",
			fields: map[string]string{
				"workflow":   "{}",
				"Comment":    "c",
				"parameters": "p",
			},
			want: selector.Selection{Name: "parameters", Raw: "p"},
		},
		{
			name:   "comment before description",
			fields: map[string]string{"Description": "d", "Comment": "c"},
			want:   selector.Selection{Name: "Comment", Raw: "c"},
		},
		{
			name:   "prompt before workflow",
			fields: map[string]string{"workflow": "{}", "prompt": "{}"},
			want:   selector.Selection{Name: "prompt", Raw: "{}"},
		},
		{
			name:   "workflow flagged",
			fields: map[string]string{"workflow": "{}"},
			want:   selector.Selection{Name: "workflow", Raw: "{}", IsWorkflow: true},
		},
		{
			name: "sniffed in sorted order",
			fields: map[string]string{
				"zz": "Steps: 1, Sampler: B",
				"aa": "Steps: 2, Sampler: A",
				"mm": "Steps: 3",
			},
			want: selector.Selection{Name: "aa", Raw: "Steps: 2, Sampler: A", Sniffed: true},
		},
		{
			name:     "nothing",
			fields:   map[string]string{"Software": "x", "other": "Steps: 3"},
			notFound: true,
		},
		{
			name:     "empty",
			notFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selector.Select(tt.fields)
			assert.Equal(t, !tt.notFound, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeParameters(t *testing.T) {
	assert.True(t, selector.LooksLikeParameters("a\nSteps: 20, Sampler: Euler"))
	assert.False(t, selector.LooksLikeParameters("Steps:20, Sampler:Euler"))
	assert.False(t, selector.LooksLikeParameters("Sampler: Euler"))
	assert.False(t, selector.LooksLikeParameters(""))
}

func TestExtractParameters(t *testing.T) {
	res := selector.Extract(map[string]string{
		"parameters": "a cat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler a",
		"workflow":   `{"nodes": []}`,
	})
	require.Equal(t, selector.KindParameters, res.Kind)
	assert.Equal(t, "parameters", res.Source)
	assert.False(t, res.Sniffed)
	assert.Empty(t, res.Entries)
	assert.Equal(t, "a cat", res.Parameters.Prompt)

	neg, ok := res.Parameters.Negative()
	assert.True(t, ok)
	assert.Equal(t, "blurry", neg)

	sampler, _ := res.Parameters.Parameters.Get("Sampler")
	assert.Equal(t, "Euler a", sampler)
}

func TestExtractKnownFields(t *testing.T) {
	res := selector.Extract(map[string]string{
		"workflow":  `{"nodes": [{"id": 1, "type": "KSampler"}]}`,
		"prompt":    `{"3": {"class_type": "KSampler"}}`,
		"Comment":   "hello",
		"Software":  "ignored",
		"Photoshop": "Steps: 1, Sampler: X",
	})
	require.Equal(t, selector.KindFields, res.Kind)
	require.Len(t, res.Entries, 3)

	assert.Equal(t, "Comment", res.Entries[0].Name)
	assert.Equal(t, "hello", res.Entries[0].Value)

	assert.Equal(t, "prompt", res.Entries[1].Name)
	assert.Equal(t, `{"3": {"class_type": "KSampler"}}`, res.Entries[1].Value, "only workflow is decoded")

	wf := res.Entries[2]
	assert.Equal(t, "workflow", wf.Name)
	assert.NoError(t, wf.DecodeErr)
	doc, ok := wf.Value.(map[string]any)
	require.True(t, ok)
	assert.Len(t, doc["nodes"], 1)
}

func TestExtractMalformedWorkflowKeepsRaw(t *testing.T) {
	res := selector.Extract(map[string]string{"workflow": `{"nodes": [`})
	require.Equal(t, selector.KindFields, res.Kind)
	require.Len(t, res.Entries, 1)

	e := res.Entries[0]
	assert.Equal(t, `{"nodes": [`, e.Value)
	assert.Equal(t, `{"nodes": [`, e.Raw)

	var derr *parser.WorkflowDecodeError
	assert.ErrorAs(t, e.DecodeErr, &derr)
}

func TestExtractSniffed(t *testing.T) {
	res := selector.Extract(map[string]string{
		"Software":  "tool",
		"Photoshop": "8BIM a dog\nSteps: 12, Sampler: DDIM, Seed: 7",
	})
	require.Equal(t, selector.KindParameters, res.Kind)
	assert.Equal(t, "Photoshop", res.Source)
	assert.True(t, res.Sniffed)
	assert.Equal(t, "8BIM a dog", res.Parameters.Prompt)
	assert.Equal(t, []string{"Steps", "Sampler", "Seed"}, res.Parameters.Parameters.Keys())
}

func TestExtractNotFound(t *testing.T) {
	res := selector.Extract(map[string]string{"Software": "tool"})
	assert.Equal(t, selector.KindNotFound, res.Kind)
	assert.Equal(t, "not_found", res.Kind.String())

	assert.Equal(t, selector.KindNotFound, selector.Extract(nil).Kind)
}
