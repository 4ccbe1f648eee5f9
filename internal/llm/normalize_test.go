package llm

import (
	"reflect"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"whitespace only", "   \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	t.Run("clean json", func(t *testing.T) {
		var p payload
		res := DecodeJSON(`{"title":"ok"}`, &p)
		if !res.OK || p.Title != "ok" {
			t.Errorf("expected clean parse, got %+v / %+v", res, p)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		var p payload
		res := DecodeJSON("```json\n{\"title\":\"fenced\"}\n```", &p)
		if !res.OK || p.Title != "fenced" {
			t.Errorf("expected fenced parse, got %+v / %+v", res, p)
		}
	})

	t.Run("bracket rescue", func(t *testing.T) {
		var p payload
		res := DecodeJSON(`Here is your result: {"title":"rescued"} hope it helps!`, &p)
		if !res.OK || p.Title != "rescued" {
			t.Errorf("expected bracket rescue, got %+v / %+v", res, p)
		}
	})

	t.Run("array rescue keeps the enclosing brackets", func(t *testing.T) {
		var questions []payload
		reply := "Sure! Here are the questions:\n[{\"title\":\"Q1\"},{\"title\":\"Q2\"}]"
		res := DecodeJSON(reply, &questions)
		if !res.OK {
			t.Fatalf("expected array rescue, got %+v", res)
		}
		if len(questions) != 2 || questions[0].Title != "Q1" || questions[1].Title != "Q2" {
			t.Errorf("expected both elements decoded, got %v", questions)
		}
	})

	t.Run("array of objects with trailing prose", func(t *testing.T) {
		var questions []payload
		res := DecodeJSON(`[{"title":"only"}] Let me know if you need more.`, &questions)
		if !res.OK || len(questions) != 1 || questions[0].Title != "only" {
			t.Errorf("expected array rescue, got %+v / %v", res, questions)
		}
	})

	t.Run("unparseable is data not error", func(t *testing.T) {
		var p payload
		res := DecodeJSON("not json at all", &p)
		if res.OK {
			t.Error("expected OK=false")
		}
		if res.Raw != "not json at all" {
			t.Errorf("Raw should carry cleaned text, got %q", res.Raw)
		}
	})
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "dash bullets",
			input: "- one\n- two\n- three",
			want:  []string{"one", "two", "three"},
		},
		{
			name:  "star bullets",
			input: "* alpha\n* beta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "numbered",
			input: "1. first\n2. second\n10. tenth",
			want:  []string{"first", "second", "tenth"},
		},
		{
			name:  "plain lines kept verbatim",
			input: "Key point here\nAnother point",
			want:  []string{"Key point here", "Another point"},
		},
		{
			name:  "blank lines skipped",
			input: "- a\n\n- b\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "whitespace only yields nothing",
			input: "   \n  \n",
			want:  nil,
		},
		{
			name:  "mixed markers",
			input: "Intro:\n- bullet\n2. numbered",
			want:  []string{"Intro:", "bullet", "numbered"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseListSingleElementFallback(t *testing.T) {
	// A paragraph with no line structure still yields one element.
	got := ParseList("just a paragraph answer")
	if len(got) != 1 || got[0] != "just a paragraph answer" {
		t.Errorf("expected single-element fallback, got %v", got)
	}
}
