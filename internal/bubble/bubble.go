// Package bubble splits one model completion into the ordered chat bubbles the
// client renders. Explicit model-provided structure (the &&& delimiter) beats
// inferred structure (paragraphs) beats a length-based sentence fallback.
package bubble

import (
	"regexp"
	"strings"
)

// Delimiter is the canonical separator personas are prompted to emit between
// bubbles.
const Delimiter = "&&&"

// longReplyThreshold is the length above which an unsegmented reply is split
// into two sentence halves.
const longReplyThreshold = 150

const placeholder = "___BUBBLE_SPLIT___"

var (
	delimiterRuns  = regexp.MustCompile(`&{4,}`)
	delimiterTrim  = regexp.MustCompile(`\s*&&&\s*`)
	strayAmpersand = regexp.MustCompile(`&+`)
	paragraphBreak = regexp.MustCompile(`\n\n+`)
	sentenceEnd    = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// Segment turns raw completion text into an ordered list of trimmed, non-blank
// bubbles. The result is never empty when the input holds any renderable text;
// blank or delimiter-only input yields nil.
func Segment(raw string) []string {
	cleaned := normalize(raw)
	if cleaned == "" {
		return nil
	}

	if strings.Contains(cleaned, Delimiter) {
		parts := strings.Split(cleaned, Delimiter)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			// Delimiters with nothing between them carry no renderable text.
			return nil
		}
		return out
	}

	if paras := splitParagraphs(cleaned); len(paras) >= 2 && len(paras) <= 4 {
		return paras
	}

	if len(cleaned) > longReplyThreshold {
		if halves := bisectSentences(cleaned); len(halves) == 2 {
			return halves
		}
	}

	return []string{cleaned}
}

// normalize collapses accidental delimiter runs (&&&& and longer) down to the
// canonical three and strips every ampersand that is not part of a full
// delimiter, so a model emitting a lone & cannot corrupt the split.
func normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = delimiterRuns.ReplaceAllString(s, Delimiter)
	s = delimiterTrim.ReplaceAllString(s, placeholder)
	s = strayAmpersand.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, placeholder, Delimiter)
	return strings.TrimSpace(s)
}

func splitParagraphs(s string) []string {
	parts := paragraphBreak.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// bisectSentences joins the first half of the sentences into one bubble and
// the rest into another. Returns nil when there are fewer than two sentences.
func bisectSentences(s string) []string {
	sentences := sentenceEnd.FindAllString(s, -1)
	if len(sentences) < 2 {
		return nil
	}
	mid := (len(sentences) + 1) / 2
	first := strings.TrimSpace(strings.Join(trimAll(sentences[:mid]), " "))
	second := strings.TrimSpace(strings.Join(trimAll(sentences[mid:]), " "))
	if first == "" || second == "" {
		return nil
	}
	return []string{first, second}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
