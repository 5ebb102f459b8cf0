package bubble

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegmentDelimiter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "clean delimiter",
			in:   "Hi&&&there",
			want: []string{"Hi", "there"},
		},
		{
			name: "delimiter with surrounding whitespace",
			in:   "Hello &&& world",
			want: []string{"Hello", "world"},
		},
		{
			name: "delimiter run collapses to one split",
			in:   "Hi&&&&&there&&&friend",
			want: []string{"Hi", "there", "friend"},
		},
		{
			name: "stray single ampersand stripped",
			in:   "fish & chips",
			want: []string{"fish  chips"},
		},
		{
			name: "leading and trailing delimiters drop empty parts",
			in:   "&&&Hi&&&there&&&",
			want: []string{"Hi", "there"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Segment(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSegmentParagraphs(t *testing.T) {
	in := "First thought here.\n\nSecond thought here."
	got := Segment(in)
	want := []string{"First thought here.", "Second thought here."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Segment(%q) = %v, want %v", in, got, want)
	}
}

func TestSegmentParagraphsTooManyFallsThrough(t *testing.T) {
	// Five paragraphs is outside the 2-4 window; short total, so whole text.
	in := "a\n\nb\n\nc\n\nd\n\ne"
	got := Segment(in)
	if len(got) != 1 {
		t.Fatalf("expected whole-text fallback, got %v", got)
	}
}

func TestSegmentDelimiterBeatsParagraphs(t *testing.T) {
	in := "First part.\n\nStill first part.&&&Second part."
	got := Segment(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 bubbles, got %v", got)
	}
	if !strings.Contains(got[0], "Still first part.") {
		t.Fatalf("delimiter should win over paragraph breaks, got %v", got)
	}
}

func TestSegmentLongReplyBisected(t *testing.T) {
	sentence := "This is a fairly ordinary sentence that fills some space. "
	in := strings.TrimSpace(strings.Repeat(sentence, 6))
	if len(in) <= longReplyThreshold {
		t.Fatalf("test input too short: %d", len(in))
	}
	got := Segment(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 bubbles from bisection, got %d: %v", len(got), got)
	}
	for i, b := range got {
		if strings.TrimSpace(b) == "" {
			t.Fatalf("bubble %d is blank", i)
		}
	}
}

func TestSegmentLongReplyWithoutSentenceBoundaries(t *testing.T) {
	in := strings.Repeat("word ", 60) + "word"
	got := Segment(in)
	if len(got) != 1 {
		t.Fatalf("no sentence boundaries should mean one bubble, got %v", got)
	}
}

func TestSegmentShortPlainText(t *testing.T) {
	got := Segment("Just a short reply.")
	want := []string{"Just a short reply."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSegmentEmptyAndAmpersandOnly(t *testing.T) {
	if got := Segment(""); got != nil {
		t.Fatalf("Segment(\"\") = %v, want nil", got)
	}
	if got := Segment("   "); got != nil {
		t.Fatalf("whitespace-only input should yield nil, got %v", got)
	}
}

func TestSegmentDelimiterOnlyYieldsNoBubbles(t *testing.T) {
	inputs := []string{"&&&", " &&& ", "&&&&&&", "&&& &&&", "&&&&&&&&&"}
	for _, in := range inputs {
		if got := Segment(in); got != nil {
			t.Fatalf("Segment(%q) = %v, want nil", in, got)
		}
	}
}

func TestSegmentNeverEmptyForNonEmptyText(t *testing.T) {
	inputs := []string{
		"x",
		"Hi&&&there",
		"a\n\nb",
		strings.Repeat("Sentence goes here. ", 20),
		"&& broken && delimiters &&",
	}
	for _, in := range inputs {
		got := Segment(in)
		if strings.TrimSpace(strings.Join(got, "")) == "" && strings.TrimSpace(strings.ReplaceAll(in, "&", "")) != "" {
			t.Fatalf("Segment(%q) produced no bubbles", in)
		}
		for i, b := range got {
			if strings.TrimSpace(b) == "" {
				t.Fatalf("Segment(%q) bubble %d is blank", in, i)
			}
		}
	}
}
