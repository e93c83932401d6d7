package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/dashboard"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/export"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/logger"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

var (
	sourceLocation  string
	costCentersFile string
	credentialsFile string
)

var rootCmd = &cobra.Command{
	Use:           "invtracker",
	Short:         "Inventory reconciliation from movement records",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the source and print per-material balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := loadSummaries(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-40s %12s %12s %12s %-6s\n", "Material", "Description", "In", "Out", "Balance", "Unit")
		for _, s := range summaries {
			fmt.Printf("%-20s %-40s %12.2f %12.2f %12.2f %-6s\n", s.Material, s.Description, s.TotalIn, s.TotalOut, s.Balance, s.Unit)
		}
		fmt.Printf("\n%d materials\n", len(summaries))
		return nil
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail <material>",
	Short: "Print the merged transaction history for one material",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := loadSummaries(cmd)
		if err != nil {
			return err
		}

		for _, s := range summaries {
			if s.Material != args[0] {
				continue
			}

			fmt.Printf("%s (%s)  in=%.2f out=%.2f balance=%.2f %s\n\n", s.Material, s.Description, s.TotalIn, s.TotalOut, s.Balance, s.Unit)
			for _, tx := range dashboard.MaterialView(s, dashboard.MaterialFilters{}) {
				sign := "+"
				if tx.Direction == dashboard.DirectionOut {
					sign = "-"
				}
				fmt.Printf("%-14s %s%10.2f  %-12s %-20s %s\n", tx.DateLabel(), sign, tx.Quantity, tx.User, tx.CostCenter, tx.Document)
			}
			return nil
		}
		return fmt.Errorf("material not found: %s", args[0])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Fetch the source and write the summary CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := loadSummaries(cmd)
		if err != nil {
			return err
		}

		doc, ok := export.Inventory(summaries, time.Now())
		if !ok {
			return fmt.Errorf("nothing to export")
		}

		if err := os.WriteFile(args[0], []byte(doc.Content), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("Wrote %d materials to %s\n", len(summaries), args[0])
		return nil
	},
}

// resolveSource falls back to the SOURCE_URL environment variable when the
// flag was not passed.
func resolveSource() (string, error) {
	location := sourceLocation
	if location == "" {
		location = os.Getenv("SOURCE_URL")
	}
	if location == "" {
		return "", fmt.Errorf("no source location: pass --source or set SOURCE_URL")
	}
	return location, nil
}

func loadSummaries(cmd *cobra.Command) ([]*inventory.MaterialSummary, error) {
	log := logger.New()

	location, err := resolveSource()
	if err != nil {
		return nil, err
	}

	src, err := source.ForLocation(location, credentialsFile)
	if err != nil {
		return nil, err
	}

	costCenters := inventory.CostCenterMap{}
	if costCentersFile != "" {
		costCenters, err = inventory.LoadCostCenters(costCentersFile)
		if err != nil {
			log.Warn().Err(err).Str("file", costCentersFile).Msg("Cost center mapping unavailable")
			costCenters = inventory.CostCenterMap{}
		}
	}

	table, err := src.Fetch(cmd.Context())
	if err != nil {
		return nil, err
	}

	return inventory.Aggregate(table, costCenters)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&sourceLocation, "source", "s", "", "source location: URL, gs:// URI or .xlsx path (defaults to SOURCE_URL env)")
	rootCmd.PersistentFlags().StringVar(&costCentersFile, "cost-centers", "", "YAML file mapping cost center codes to names")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", "", "GCS service account credentials file")

	rootCmd.AddCommand(reportCmd, detailCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
