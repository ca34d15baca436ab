package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/store"
)

var (
	scansStatus string
	scansLimit  int
	scansOffset int
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List stored scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scans, err := st.ListScans(ctx, store.ScanFilter{
			Status: model.ScanStatus(scansStatus),
			Limit:  scansLimit,
			Offset: scansOffset,
		})
		if err != nil {
			return err
		}
		return writeResultJSON(scans, "")
	},
}

func init() {
	scansCmd.Flags().StringVar(&scansStatus, "status", "", "filter by status (queued|active|completed|failed)")
	scansCmd.Flags().IntVar(&scansLimit, "limit", 20, "maximum scans to list")
	scansCmd.Flags().IntVar(&scansOffset, "offset", 0, "number of scans to skip")
	rootCmd.AddCommand(scansCmd)
}
