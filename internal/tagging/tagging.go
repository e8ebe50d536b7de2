// Package tagging plans how a document's tag set is rewritten.
//
// Planning is pure: given the requested tags and the subset already present in the
// tag table it decides which tags must be created and which relations must exist.
// Storage backends execute the plan inside their own transaction.
package tagging

import (
	"slices"
	"strings"
)

// Plan is the outcome of reconciling a requested tag set against existing tags.
type Plan struct {
	// Create lists tags missing from the tag table.
	Create []string
	// Attach is the full, deduplicated set of tags the document ends up with.
	Attach []string
}

// Dedupe returns the unique tags sorted ascending. Case is preserved.
func Dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	out = append(out, tags...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Normalize trims tags, drops blank ones and dedupes the rest.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return Dedupe(out)
}

// NewPlan reconciles requested against the tags that already exist.
func NewPlan(requested, existing []string) Plan {
	attach := Dedupe(requested)
	known := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		known[t] = struct{}{}
	}
	var create []string
	for _, t := range attach {
		if _, ok := known[t]; !ok {
			create = append(create, t)
		}
	}
	return Plan{Create: create, Attach: attach}
}
