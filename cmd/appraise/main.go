package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "appraise",
		Short: "Appraise classified development deals offline",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(dealTypesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	opts := defaultRunOptions()

	cmd := &cobra.Command{
		Use:   "run <file.json>...",
		Short: "Run appraisals for classification files and print JSON or write xlsx reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppraisals(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.AssumptionsPath, "assumptions", "a", "", "assumptions CSV (built-in rates when empty)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "write one xlsx report per file into this directory instead of printing JSON")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", opts.Concurrency, "appraisals run in parallel")
	cmd.Flags().IntVar(&opts.Defaults.TimelineMonths, "timeline", opts.Defaults.TimelineMonths, "default timeline in months")
	cmd.Flags().Float64Var(&opts.Defaults.OwnFundsInvested, "own-funds", opts.Defaults.OwnFundsInvested, "default own funds invested")
	cmd.Flags().Float64Var(&opts.Defaults.RentalPerUnitPerMonth, "rent", opts.Defaults.RentalPerUnitPerMonth, "default monthly rent per unit")
	return cmd
}

func dealTypesCmd() *cobra.Command {
	var assumptionsPath string

	cmd := &cobra.Command{
		Use:   "deal-types",
		Short: "List the deal types with an assumptions column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDealTypes(cmd.OutOrStdout(), assumptionsPath)
		},
	}

	cmd.Flags().StringVarP(&assumptionsPath, "assumptions", "a", "", "assumptions CSV (supported deal types when empty)")
	return cmd
}
