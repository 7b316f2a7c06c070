// Package prompts holds the fixed prompt templates for literature
// summarization and natural-language-to-filter translation.
package prompts

import (
	"fmt"
	"strings"

	"github.com/matkb-cloud/matkb/internal/config"
)

// LiteratureSummarySystem instructs the model to summarize one paper
// against the user's question.
const LiteratureSummarySystem = `You are a materials science expert. Your task is to produce a concise, accurate summary of the provided paper fulltext, focused on the user's question.

Requirements:
1. Concentrate on the parts relevant to the question and extract the most pertinent information
2. Capture the key facts: methods, experimental conditions, main findings, data, conclusions
3. Stay objective and accurate; use only information stated in the paper, never invent or speculate
4. Keep the summary compact but complete, around 500-800 words
5. If the paper carries a title or DOI, state it at the start or end of the summary
6. Use a clear structure so downstream synthesis can consume it`

// LiteratureSummaryUser builds the per-document user prompt.
func LiteratureSummaryUser(question, fulltext string) string {
	return fmt.Sprintf(`Summarize the following paper fulltext with respect to the user's question:

[User question]
%s

[Paper fulltext]
%s

Produce a concise, accurate summary focused on the parts relevant to the question.`, question, fulltext)
}

// DatabaseQuerySystem builds the translation system prompt from the
// configured table catalog. The model must answer with strict JSON in the
// tables/filters shape.
func DatabaseQuerySystem(tables []config.TableConfig) string {
	var sb strings.Builder
	sb.WriteString(`You are a database query expert. Convert the user's natural-language request into a structured database query.

Available tables:
`)
	for _, t := range tables {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString(`
Requirements:
1. Analyze the request and identify the tables and fields to query
2. A single request may need several tables; include one entry per table
3. Answer with JSON only: a "tables" array whose entries have "table_name" and "filters"
4. "filters" must be a single condition object (type: 1) or a composite object (type: 2), never an array
5. Composite conditions use type: 2 with "groupOperator" ("and" or "or") and a "sub" array of child conditions
6. Use only the operators eq, lt, gt, like, in
7. Use like for fuzzy matching on string fields
8. Use eq, lt, gt for numeric fields
9. Use in for membership over a list of values

Response format example:
{
  "tables": [
    {
      "table_name": "polymers",
      "filters": {"type": 1, "field": "polymer_type", "operator": "like", "value": "epoxy"}
    },
    {
      "table_name": "viscosity_measurements",
      "filters": {
        "type": 2,
        "groupOperator": "and",
        "sub": [
          {"type": 1, "field": "temperature", "operator": "eq", "value": 25},
          {"type": 1, "field": "viscosity", "operator": "gt", "value": 0.1}
        ]
      }
    }
  ]
}`)
	return sb.String()
}

// DatabaseQueryUser builds the translation user prompt.
func DatabaseQueryUser(queryDescription string) string {
	return fmt.Sprintf(`Convert the following request into a structured database query:

[User request]
%s

Determine the tables to query (possibly several), build the filters structure for each, and answer with JSON only.`, queryDescription)
}
