package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/presence-scanner/internal/batch"
	"github.com/sells-group/presence-scanner/internal/insights"
	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/reconcile"
)

var (
	batchInput       string
	batchLimit       int
	batchConcurrency int
	batchOutput      string
	batchEnqueue     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan a list of businesses from a CSV or XLSX file",
	Long: `Reads businesses from a CSV or XLSX file and scans them.

By default scans run in-process with bounded concurrency and the collected
results are written as JSON. With --enqueue the businesses are pushed onto
the queue for workers instead.

Examples:
  presence-scanner batch --input businesses.csv --concurrency 3 --output results.json
  presence-scanner batch --input businesses.xlsx --enqueue`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		businesses, err := batch.ReadFile(batchInput)
		if err != nil {
			return err
		}
		if batchLimit > 0 && batchLimit < len(businesses) {
			businesses = businesses[:batchLimit]
		}
		zap.L().Info("batch loaded", zap.Int("businesses", len(businesses)))

		if batchEnqueue {
			return enqueueBatch(cmd, businesses)
		}

		reg, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		orch := newOrchestrator(cfg, reg)

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentScans
		}

		var (
			mu      sync.Mutex
			results []*model.ScanResult
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, business := range businesses {
			g.Go(func() error {
				harvested, err := orch.Run(gctx, business)
				if err != nil {
					return eris.Wrapf(err, "batch: scan %s", business.Name)
				}

				presence := reconcile.Reconcile(business, harvested)
				flags := insights.Generate(insights.FromReconciled(presence), business, reg)

				mu.Lock()
				results = append(results, &model.ScanResult{
					ScanID:     uuid.New().String(),
					Business:   business,
					Presence:   *presence,
					Insights:   flags,
					FinishedAt: time.Now().UTC(),
				})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch finished", zap.Int("results", len(results)))
		return writeResultJSON(results, batchOutput)
	},
}

func enqueueBatch(cmd *cobra.Command, businesses []model.BusinessInput) error {
	q := newQueue(cfg)
	defer q.Close() //nolint:errcheck

	for _, business := range businesses {
		task, err := q.Enqueue(cmd.Context(), business, "")
		if err != nil {
			return eris.Wrapf(err, "batch: enqueue %s", business.Name)
		}
		zap.L().Info("batch enqueued",
			zap.String("scan_id", task.ID),
			zap.String("business", business.Name),
		)
	}
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file of businesses (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "scan at most this many rows")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent scans (default from config)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results JSON to file instead of stdout")
	batchCmd.Flags().BoolVar(&batchEnqueue, "enqueue", false, "push businesses onto the queue instead of scanning in-process")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
