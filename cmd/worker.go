package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/xpanddigital/cratehq-enrich/internal/queue"
)

var workerClaimLimit int

// workerCmd performs one time-boxed invocation and exits, so an external
// scheduler (cron) owns the cadence.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run one batch-queue worker invocation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		qcfg := cfg.Worker.QueueConfig()
		if workerClaimLimit > 0 {
			qcfg.ClaimLimit = workerClaimLimit
		}

		var hb *queue.HeartbeatSender
		if cfg.Heartbeat.WebhookURL != "" {
			hb = queue.NewHeartbeatSender(cfg.Heartbeat.WebhookURL)
		}
		w := queue.NewWorker(st, initPipeline(), qcfg, hb)

		report, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerClaimLimit, "claim-limit", 0, "max jobs to claim this invocation (default from config)")
	rootCmd.AddCommand(workerCmd)
}
