package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/pkg/vision"
)

var (
	extractEnrich   bool
	extractLocation string
	extractOwner    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract community names from an image",
	Long:  "Reads a photographed sign, flyer, or list screenshot and prints the community names it contains, deduplicated and uppercased. With --enrich the names are fed straight into an enrichment run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read image")
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))
		if !strings.HasPrefix(mimeType, "image/") {
			return eris.Errorf("unsupported image type: %s", args[0])
		}

		client := vision.NewClient(cfg.Anthropic.Key, cfg.Anthropic.Model)
		names, err := client.ExtractNames(ctx, data, mimeType)
		if err != nil {
			return eris.Wrap(err, "extract names")
		}
		if len(names) == 0 {
			return eris.New("no community names found in image")
		}

		for _, name := range names {
			fmt.Println(name)
		}

		if !extractEnrich {
			return nil
		}
		if strings.TrimSpace(extractLocation) == "" {
			return eris.New("--location is required with --enrich")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Store.CreateJob(ctx, extractOwner, names, extractLocation)
		if err != nil {
			return eris.Wrap(err, "create job")
		}
		summary := env.Scheduler.Run(ctx, job)

		zap.L().Info("extracted names enriched",
			zap.String("job_id", job.ID),
			zap.Int("processed", summary.Processed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractEnrich, "enrich", false, "enrich the extracted names immediately")
	extractCmd.Flags().StringVar(&extractLocation, "location", "", "geographic context for --enrich")
	extractCmd.Flags().StringVar(&extractOwner, "owner", "", "notification recipient for --enrich")
	rootCmd.AddCommand(extractCmd)
}
