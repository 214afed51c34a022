package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ikk-contest/backend/conf"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/wiring"
	"github.com/spf13/cobra"
)

func main() {
	var deps *wiring.Deps

	openDeps := func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.Load()
		if err != nil {
			return err
		}
		logger.Setup(cfg.LogLevel)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		deps, err = wiring.Open(cmd.Context(), cfg)
		return err
	}
	closeDeps := func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.Close()
		}
	}

	var rootCmd = &cobra.Command{
		Use:          "ikk-admin",
		Short:        "Jury tools for the contest submissions",
		SilenceUsage: true,
	}

	var query string

	var listCmd = &cobra.Command{
		Use:     "list",
		Short:   "Print submissions as a table",
		PreRunE: openDeps,
		PostRun: closeDeps,
		RunE: func(cmd *cobra.Command, args []string) error {
			subms, err := listSubms(cmd.Context(), deps, query)
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), subms)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name, surname or validation id")

	var out string
	var exportCmd = &cobra.Command{
		Use:     "export",
		Short:   "Write submissions to a CSV file",
		PreRunE: openDeps,
		PostRun: closeDeps,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCSV(cmd.Context(), deps, query, out, cmd.OutOrStdout())
		},
	}
	exportCmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name, surname or validation id")
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default ikk_basvurular_<date>.csv, - for stdout)")

	var tuiCmd = &cobra.Command{
		Use:     "tui",
		Short:   "Browse submissions interactively",
		PreRunE: openDeps,
		PostRun: closeDeps,
		RunE: func(cmd *cobra.Command, args []string) error {
			subms, err := listSubms(cmd.Context(), deps, "")
			if err != nil {
				return err
			}
			return runTUI(subms)
		},
	}

	var orphansCmd = &cobra.Command{
		Use:     "orphans",
		Short:   "List uploaded files that no submission refers to",
		PreRunE: openDeps,
		PostRun: closeDeps,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := deps.Blobs.ListFiles(cmd.Context(), blobPrefix)
			if err != nil {
				return err
			}
			subms, err := deps.Repo.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range findOrphans(paths, subms) {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	var hashCmd = &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for ADMIN_PASSWORD_BCRYPT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return hashPassword(cmd.InOrStdin(), cmd.OutOrStdout(), args)
		},
	}

	rootCmd.AddCommand(listCmd, exportCmd, tuiCmd, orphansCmd, hashCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
