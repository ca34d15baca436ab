package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/insights"
	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/reconcile"
)

var (
	scanName    string
	scanPhone   string
	scanWebsite string
	scanAddress string
	scanCity    string
	scanCountry string
	scanEmail   string
	scanOutput  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a single business synchronously",
	Long: `Runs the full discovery, reconciliation, and insight pipeline for one
business and prints the result as JSON. Bypasses the queue entirely.

Examples:
  presence-scanner scan --name "Acme Corp" --city Springfield
  presence-scanner scan --name "Acme Corp" --website acme.com --output result.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scanName == "" {
			return eris.New("scan: --name is required")
		}
		ctx := cmd.Context()

		business := model.BusinessInput{
			Name:    scanName,
			Phone:   scanPhone,
			Website: scanWebsite,
			Address: scanAddress,
			City:    scanCity,
			Country: scanCountry,
			Email:   scanEmail,
		}

		reg, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		orch := newOrchestrator(cfg, reg)

		started := time.Now()
		harvested, err := orch.Run(ctx, business)
		if err != nil {
			return eris.Wrap(err, "scan: aborted")
		}

		presence := reconcile.Reconcile(business, harvested)
		flags := insights.Generate(insights.FromReconciled(presence), business, reg)

		result := &model.ScanResult{
			ScanID:     uuid.New().String(),
			Business:   business,
			Presence:   *presence,
			Insights:   flags,
			FinishedAt: time.Now().UTC(),
		}

		zap.L().Info("scan finished",
			zap.Duration("elapsed", time.Since(started)),
			zap.Int("social_links", len(result.Presence.SocialLinks)),
		)

		return writeResultJSON(result, scanOutput)
	},
}

// writeResultJSON writes v as indented JSON to path, or stdout when path is
// empty.
func writeResultJSON(v any, path string) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "scan: marshal result")
	}
	out = append(out, '\n')

	if path == "" {
		_, err = os.Stdout.Write(out)
		return eris.Wrap(err, "scan: write stdout")
	}
	return eris.Wrap(os.WriteFile(path, out, 0o644), "scan: write output file")
}

func init() {
	scanCmd.Flags().StringVar(&scanName, "name", "", "business name (required)")
	scanCmd.Flags().StringVar(&scanPhone, "phone", "", "known phone number")
	scanCmd.Flags().StringVar(&scanWebsite, "website", "", "known website URL")
	scanCmd.Flags().StringVar(&scanAddress, "address", "", "street address")
	scanCmd.Flags().StringVar(&scanCity, "city", "", "city")
	scanCmd.Flags().StringVar(&scanCountry, "country", "", "country")
	scanCmd.Flags().StringVar(&scanEmail, "email", "", "known email address")
	scanCmd.Flags().StringVar(&scanOutput, "output", "", "write result JSON to file instead of stdout")
	rootCmd.AddCommand(scanCmd)
}
