// Package prompts builds the LLM prompt text used by the chat agent.
package prompts

import (
	"fmt"
	"strings"

	"github.com/prasann/table-talks/pkg/models"
)

// BuildChatSystemPrompt creates the system prompt for the schema chat
// session. It embeds a short inventory of scanned files so the model
// can resolve file references without a tool round, and sets the rules
// for tool selection.
func BuildChatSystemPrompt(files []*models.FileInfo) string {
	var b strings.Builder

	b.WriteString("You are a data schema analysis assistant. ")
	b.WriteString("You answer questions about CSV and Parquet files that have been scanned into a local metadata store. ")
	b.WriteString("You only see schema metadata (file names, column names, data types, null and unique counts), never row contents.\n\n")

	b.WriteString("Use the provided functions to look up metadata and run analyses. ")
	b.WriteString("Choose the most specific function for the question:\n")
	b.WriteString("- Schema or column questions about one file: get_schemas\n")
	b.WriteString("- Finding where a column, file or type appears: search_metadata\n")
	b.WriteString("- Cross-file structure (shared columns, similar or diverging schemas): find_relationships\n")
	b.WriteString("- Data quality concerns (type mismatches, naming drift): detect_inconsistencies\n")
	b.WriteString("- Comparing exactly two files: compare_items\n\n")

	b.WriteString("Base every answer on tool results. If a tool reports an error or an empty result, say so plainly instead of guessing. ")
	b.WriteString("Keep answers concise and mention the file names you drew them from.\n")

	if len(files) == 0 {
		b.WriteString("\nNo files have been scanned yet. Tell the user to run /scan <directory> before asking schema questions.\n")
		return b.String()
	}

	b.WriteString("\nScanned files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%d columns, %d rows)\n", f.FileName, f.ColumnCount, f.TotalRows)
	}
	return b.String()
}
