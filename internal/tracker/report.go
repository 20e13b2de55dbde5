package tracker

import (
	"fmt"
	"strings"
	"time"
)

// BuildReport renders a Markdown export of the tracker history, oldest
// entry first so the document reads chronologically.
func BuildReport(entries []Summary) string {
	var b strings.Builder
	b.WriteString("# Weekly Task Tracker Export\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Total entries: %d\n\n", len(entries))

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		header := entry.Project
		if header == "" {
			header = "General update"
		}
		fmt.Fprintf(&b, "## %s (%s)\n", header, entry.CreatedAt.Format("2006-01-02 15:04 UTC"))
		fmt.Fprintf(&b, "*Activity type:* %s\n", entry.ActivityType.DisplayName())
		if entry.Context != "" {
			fmt.Fprintf(&b, "**Context:** %s\n", entry.Context)
		}
		b.WriteString("\n### Macro tasks\n")
		for _, task := range entry.GeneratedTasks {
			fmt.Fprintf(&b, "- %s\n", task)
		}
		b.WriteString("\n### Overlooked / missing tasks\n")
		for _, task := range entry.OverlookedTasks {
			fmt.Fprintf(&b, "- %s\n", task)
		}
		b.WriteString("\n")
	}
	return b.String()
}
