package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runLocation string
	runFile     string
	runOwner    string
)

var runCmd = &cobra.Command{
	Use:   "run [name ...]",
	Short: "Enrich a list of community names and wait for completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names := args
		if runFile != "" {
			fileNames, err := readNames(runFile)
			if err != nil {
				return err
			}
			names = append(names, fileNames...)
		}
		if len(names) == 0 {
			return eris.New("no community names given (pass as arguments or --file)")
		}
		if strings.TrimSpace(runLocation) == "" {
			return eris.New("--location is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Store.CreateJob(ctx, runOwner, names, runLocation)
		if err != nil {
			return eris.Wrap(err, "create job")
		}

		// The CLI is synchronous: drive the scheduler directly instead of
		// dispatching a background job.
		summary := env.Scheduler.Run(ctx, job)

		fmt.Printf("Job %s finished: %d processed, %d skipped, %d failed (of %d)\n",
			job.ID, summary.Processed, summary.Skipped, summary.Failed, summary.Total)
		for _, name := range summary.FailedNames {
			fmt.Printf("  failed: %s\n", name)
		}

		if summary.Failed > 0 {
			zap.L().Warn("job finished with failures",
				zap.String("job_id", job.ID),
				zap.Int("failed", summary.Failed),
			)
		}
		return nil
	},
}

// readNames loads one community name per line, skipping blanks and
// #-comments.
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open names file")
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read names file")
	}
	return names, nil
}

func init() {
	runCmd.Flags().StringVar(&runLocation, "location", "", "geographic context, e.g. \"Dallas, TX\" (required)")
	runCmd.Flags().StringVar(&runFile, "file", "", "file with one community name per line")
	runCmd.Flags().StringVar(&runOwner, "owner", "", "notification recipient")
	rootCmd.AddCommand(runCmd)
}
