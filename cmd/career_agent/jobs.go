package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/career-coach/internal/jobs"
	"github.com/jonathan/career-coach/internal/observability"
	"github.com/spf13/cobra"
)

var jobsRole string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Search current job listings",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsRole, "role", "", "Role keywords to search for")
	jobsCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Print a human-readable summary instead of JSON")
	jobsCmd.Flags().StringVar(&credentialsFile, "file", "", "Credentials file (default: credentials_file from config)")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	result, err := jobs.NewFetcher(store, slog.Default()).Fetch(cmd.Context(), jobsRole)
	var cfgErr *jobs.ConfigurationError
	if errors.As(err, &cfgErr) {
		return fmt.Errorf("%w (run: career_agent credentials set KEY=VALUE)", err)
	}
	if err != nil {
		return err
	}

	if prettyOutput {
		observability.NewPrinter(cmd.OutOrStdout()).PrintJobs(result)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
