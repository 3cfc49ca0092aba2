package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/community-enrich/internal/model"
)

// summarize renders the completion notification for a finished job.
func summarize(job *model.Job, summary *model.JobSummary, status model.JobStatus) (subject, body string) {
	subject = fmt.Sprintf("Enrichment job %s %s", shortID(job.ID), status)

	var b strings.Builder
	fmt.Fprintf(&b, "Job %s (%s) finished with status %s.\n\n", job.ID, job.Location, status)
	fmt.Fprintf(&b, "Total:     %d\n", summary.Total)
	fmt.Fprintf(&b, "Processed: %d\n", summary.Processed)
	fmt.Fprintf(&b, "Skipped:   %d\n", summary.Skipped)
	fmt.Fprintf(&b, "Failed:    %d\n", summary.Failed)

	if len(summary.SkippedNames) > 0 {
		b.WriteString("\nSkipped (already enriched):\n")
		for _, name := range summary.SkippedNames {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	if len(summary.FailedNames) > 0 {
		b.WriteString("\nFailed:\n")
		for _, name := range summary.FailedNames {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}

	return subject, b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
