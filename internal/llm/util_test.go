package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"guidance":"Keep shipping."}`,
			want: `{"guidance":"Keep shipping."}`,
		},
		{
			name: "fenced with language",
			in:   "```json\n{\"question\":\"Why Go?\",\"topic\":\"Motivation\"}\n```",
			want: `{"question":"Why Go?","topic":"Motivation"}`,
		},
		{
			name: "fenced without language",
			in:   "```\n{\"isResume\":false}\n```",
			want: `{"isResume":false}`,
		},
		{
			name: "preamble and trailer",
			in:   "Here is your report:\n{\"overallScore\":72}\nLet me know if you need more.",
			want: `{"overallScore":72}`,
		},
		{
			name: "braces inside strings",
			in:   `Sure! {"verdict":"Strong fit {mostly}","missingSkills":["}"]} done`,
			want: `{"verdict":"Strong fit {mostly}","missingSkills":["}"]}`,
		},
		{
			name: "escaped quotes",
			in:   `{"guidance":"Say \"no\" to scope creep {politely}"} trailing`,
			want: `{"guidance":"Say \"no\" to scope creep {politely}"}`,
		},
		{
			name: "array before object",
			in:   `Skills: ["Go","SQL"] and {"x":1}`,
			want: `["Go","SQL"]`,
		},
		{
			name: "unbalanced object falls back to input",
			in:   `{"overallScore": 72`,
			want: `{"overallScore": 72`,
		},
		{
			name: "no JSON",
			in:   "  I cannot help with that.  ",
			want: "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.in))
		})
	}
}

func TestCleanJSONBlock_NestedFlowOutput(t *testing.T) {
	raw := "```json\n" + `{
  "overallScore": 64,
  "summary": {"status": "Ended early", "overview": "Good start."},
  "questionFeedback": [{"question": "Q1", "feedback": "Use {STAR}", "score": 60}]
}` + "\n```\nHope this helps!"

	var out map[string]any
	assert.NoError(t, json.Unmarshal([]byte(CleanJSONBlock(raw)), &out))
	assert.EqualValues(t, 64, out["overallScore"])
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		open  byte
		close byte
		want  string
	}{
		{"object", `{"a":{"b":1}} rest`, '{', '}', `{"a":{"b":1}}`},
		{"array", `[[1],[2]] rest`, '[', ']', `[[1],[2]]`},
		{"wrong opener", `x{"a":1}`, '{', '}', ""},
		{"empty", "", '{', '}', ""},
		{"unterminated", `{"a":"}`, '{', '}', ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractBalanced(tt.in, tt.open, tt.close))
		})
	}
	assert.Equal(t, `{"a":1}`, extractJSONObject(`{"a":1}`))
	assert.Equal(t, `[1]`, extractJSONArray(`[1]x`))
}
