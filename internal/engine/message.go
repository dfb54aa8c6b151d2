package engine

import (
	"fmt"
	"strings"

	"github.com/buildforge/buildvc/internal/model"
)

// fallbackCommitMessage is used when a change-set records no structural
// changes.
const fallbackCommitMessage = "Updated build configuration"

// GenerateCommitMessage renders a deterministic summary of a change-set:
// "Added N parts", "Removed N parts", "Modified N parts", "Applied N
// optimizations", joined by commas in that fixed order. Sections with a
// zero count are omitted. An empty change-set yields the fallback
// message.
func GenerateCommitMessage(cs *model.ChangeSet) string {
	if cs == nil || cs.Empty() {
		return fallbackCommitMessage
	}

	sections := []string{}
	if n := len(cs.Added); n > 0 {
		sections = append(sections, fmt.Sprintf("Added %d %s", n, pluralParts(n)))
	}
	if n := len(cs.Removed); n > 0 {
		sections = append(sections, fmt.Sprintf("Removed %d %s", n, pluralParts(n)))
	}
	if n := len(cs.Modified); n > 0 {
		sections = append(sections, fmt.Sprintf("Modified %d %s", n, pluralParts(n)))
	}
	if n := len(cs.OptimizationsChanged); n > 0 {
		word := "optimizations"
		if n == 1 {
			word = "optimization"
		}
		sections = append(sections, fmt.Sprintf("Applied %d %s", n, word))
	}
	return strings.Join(sections, ", ")
}

func pluralParts(n int) string {
	if n == 1 {
		return "part"
	}
	return "parts"
}
