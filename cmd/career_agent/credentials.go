package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/career-coach/internal/config"
	"github.com/spf13/cobra"
)

var credentialsFile string

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Inspect or set job search credentials",
}

var credentialsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report which credentials are configured",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsStatus,
}

var credentialsSetCmd = &cobra.Command{
	Use:     "set KEY=VALUE...",
	Short:   "Persist one or more credentials",
	Example: "  career_agent credentials set ADZUNA_APP_ID=abc123 ADZUNA_API_KEY=def456",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCredentialsSet,
}

func init() {
	credentialsCmd.PersistentFlags().StringVar(&credentialsFile, "file", "", "Credentials file (default: credentials_file from config)")
	credentialsCmd.AddCommand(credentialsStatusCmd, credentialsSetCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func openStore() (*config.Store, error) {
	path := credentialsFile
	if path == "" {
		cfg, err := loadSettings()
		if err != nil {
			return nil, err
		}
		path = cfg.CredentialsFile
	}
	return config.NewStore(path)
}

func runCredentialsStatus(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	present := store.Present()
	for _, k := range config.CredentialKeys {
		state := "missing"
		if present[k] {
			state = "set"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, state)
	}
	return nil
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	pairs, err := parseAssignments(args)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.SetMany(pairs); err != nil {
		return err
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", strings.Join(keys, ", "), store.Path())
	return nil
}

// parseAssignments turns KEY=VALUE arguments into pairs, accepting only
// known credential keys.
func parseAssignments(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		key = strings.TrimSpace(key)
		if !slices.Contains(config.CredentialKeys, key) {
			return nil, fmt.Errorf("unknown credential %q (known: %s)", key, strings.Join(config.CredentialKeys, ", "))
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
		pairs[key] = value
	}
	return pairs, nil
}
