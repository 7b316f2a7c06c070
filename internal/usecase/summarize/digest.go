package summarize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matkb-cloud/matkb/internal/domain"
)

const (
	maxValueLen   = 300
	maxListItems  = 10
	maxAbstract   = 500
	digestMissing = "No fulltext available for this document; the following structured metadata was found."
)

// headerFields are rendered first, in this order, trying each alias until
// one matches a populated column.
var headerFields = []struct {
	label   string
	aliases []string
}{
	{"Title", []string{"title", "Title", "paper_title"}},
	{"Authors", []string{"authors", "Authors", "author", "author_list"}},
	{"Journal", []string{"journal", "Journal", "venue", "publication"}},
	{"Year", []string{"year", "Year", "publication_year", "pub_year"}},
	{"Abstract", []string{"abstract", "Abstract", "summary"}},
}

// priorityFields are domain measurements surfaced before the remaining
// columns. Matched by prefix for families like smiles_1, ratio_a.
var priorityPrefixes = []string{"smiles", "ratio", "compound", "monomer"}

var priorityExact = []string{
	"polymer_type", "temperature", "viscosity", "tensile_strength",
	"glass_transition_temperature", "curing_time", "hardness",
	"molecular_weight",
}

// excludedFields never appear in a digest.
var excludedFields = map[string]bool{
	"doi": true, "created_at": true, "updated_at": true,
	"create_time": true, "update_time": true,
}

// buildDigest renders a candidate's metadata row as a readable stand-in
// for a fulltext summary. Works for empty rows too: every candidate that
// reaches the summarization stage yields output.
func buildDigest(c domain.DocumentCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s\n%s\n", c.DocID, digestMissing)

	used := make(map[string]bool)
	for _, hf := range headerFields {
		for _, alias := range hf.aliases {
			v, ok := c.Row[alias]
			if !ok || isEmpty(v) {
				continue
			}
			text := renderValue(v)
			if hf.label == "Abstract" {
				text = truncate(text, maxAbstract)
			}
			fmt.Fprintf(&b, "%s: %s\n", hf.label, text)
			used[alias] = true
			break
		}
	}

	var priority, rest []string
	for k, v := range c.Row {
		if used[k] || excludedFields[k] || strings.HasPrefix(k, "_") || isEmpty(v) {
			continue
		}
		if isPriority(k) {
			priority = append(priority, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Strings(priority)
	sort.Strings(rest)

	for _, k := range append(priority, rest...) {
		fmt.Fprintf(&b, "%s: %s\n", k, renderValue(c.Row[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func isPriority(field string) bool {
	lower := strings.ToLower(field)
	for _, p := range priorityPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, e := range priorityExact {
		if lower == e {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	case []any:
		return len(vv) == 0
	default:
		return false
	}
}

func renderValue(v any) string {
	switch vv := v.(type) {
	case string:
		return truncate(strings.TrimSpace(vv), maxValueLen)
	case []any:
		items := vv
		if len(items) > maxListItems {
			items = items[:maxListItems]
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = renderValue(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		// avoid %v's exponent notation for whole numbers stored as floats
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprintf("%g", vv)
	default:
		return truncate(fmt.Sprintf("%v", vv), maxValueLen)
	}
}

// truncate caps s at n characters, not bytes, so multi-byte text is never
// cut mid-rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
