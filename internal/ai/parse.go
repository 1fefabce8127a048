package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var paragraphSplit = regexp.MustCompile(`\n\n+`)

// parseAnalysis extracts the structured analysis from the model's reply.
// Strict path: unmarshal the first {...} block. Fallback: split the reply
// into paragraphs and pick fields by keyword so the three fields are always
// populated even when the model ignored the JSON instruction.
func parseAnalysis(text string) Analysis {
	if a, ok := parseJSON(text); ok {
		return a
	}

	parts := paragraphSplit.Split(strings.TrimSpace(text), -1)

	a := Analysis{Category: "Geral"}
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		a.Analysis = strings.TrimSpace(parts[0])
	} else {
		a.Analysis = truncate(text, 500)
	}
	for _, p := range parts {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "categoria") {
			if _, after, found := strings.Cut(p, ":"); found {
				if c := strings.TrimSpace(after); c != "" {
					a.Category = c
				}
			}
			break
		}
	}
	for _, p := range parts {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "resolução") || strings.Contains(lower, "instrução") {
			a.ResolutionInstructions = strings.TrimSpace(p)
			break
		}
	}
	if a.ResolutionInstructions == "" && len(parts) > 0 {
		a.ResolutionInstructions = strings.TrimSpace(parts[len(parts)-1])
	}

	// Last-resort guards: never return an empty field.
	if a.Analysis == "" {
		a.Analysis = text
	}
	if a.Category == "" {
		a.Category = "Geral"
	}
	if a.ResolutionInstructions == "" {
		a.ResolutionInstructions = text
	}
	return a
}

// parseJSON attempts strict extraction from the first '{' through the last
// '}', which also skips markdown code fences the model may wrap around the
// object.
func parseJSON(text string) (Analysis, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Analysis{}, false
	}
	var a Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return Analysis{}, false
	}
	if a.Analysis == "" {
		a.Analysis = text
	}
	if a.Category == "" {
		a.Category = "Geral"
	}
	if a.ResolutionInstructions == "" {
		a.ResolutionInstructions = text
	}
	return a, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
