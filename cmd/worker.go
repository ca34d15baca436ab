package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/worker"
)

var workerCount int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start scan workers consuming the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		q := newQueue(cfg)
		defer q.Close() //nolint:errcheck
		if err := q.Ping(ctx); err != nil {
			return err
		}

		st, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reg, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		runner := worker.New(worker.Config{
			Queue:        q,
			Store:        st,
			Orchestrator: newOrchestrator(cfg, reg),
			Registry:     reg,
			Deliverer:    newDeliverer(cfg),
			PollTimeout:  time.Duration(cfg.Queue.PollTimeoutSecs) * time.Second,
		})

		count := workerCount
		if count < 1 {
			count = 1
		}
		zap.L().Info("starting workers", zap.Int("count", count))

		done := make(chan struct{}, count)
		for i := 0; i < count; i++ {
			go func() {
				defer func() { done <- struct{}{} }()
				if err := runner.Run(ctx); err != nil {
					zap.L().Error("worker exited", zap.Error(err))
				}
			}()
		}
		for i := 0; i < count; i++ {
			<-done
		}
		return nil
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "count", 1, "number of concurrent workers")
	rootCmd.AddCommand(workerCmd)
}
