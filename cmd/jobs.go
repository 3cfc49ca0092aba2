package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/community-enrich/internal/model"
	"github.com/sells-group/community-enrich/internal/store"
)

var (
	jobsStatus string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [id]",
	Short: "List enrichment jobs or show one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			job, err := st.GetJob(ctx, args[0])
			if err != nil {
				return eris.Wrapf(err, "get job %s", args[0])
			}
			return enc.Encode(job)
		}

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Status: model.JobStatus(jobsStatus),
			Limit:  jobsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list jobs")
		}
		for _, job := range jobs {
			fmt.Printf("%s  %-10s  %3d/%3d  %s  %s\n",
				job.ID, job.Status, job.ProcessedCount, job.TotalCount,
				job.Location, job.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (processing|completed|failed)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum jobs to list")
	rootCmd.AddCommand(jobsCmd)
}
