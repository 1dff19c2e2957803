package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/career-coach/internal/flows"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/observability"
	"github.com/jonathan/career-coach/internal/server"
	"github.com/spf13/cobra"
)

var (
	flowInputFile  string
	flowOutputFile string
	prettyOutput   bool
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Run coaching flows from the command line",
}

var flowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available flows",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range flows.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var flowRunCmd = &cobra.Command{
	Use:     "run NAME",
	Short:   "Run one flow with a JSON input",
	Long:    "Run one flow with a JSON input read from --in (or stdin) and print the validated JSON output.",
	Example: "  career_agent flow run mentor-guidance --in question.json",
	Args:    cobra.ExactArgs(1),
	RunE:    runFlow,
}

func init() {
	flowRunCmd.Flags().StringVarP(&flowInputFile, "in", "i", "", "Path to the JSON input (default: stdin)")
	flowRunCmd.Flags().StringVarP(&flowOutputFile, "out", "o", "", "Path to write the JSON output (default: stdout)")
	flowRunCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Print a human-readable summary instead of JSON")
	flowCmd.AddCommand(flowListCmd, flowRunCmd)
	rootCmd.AddCommand(flowCmd)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func runFlow(cmd *cobra.Command, args []string) error {
	name := flows.Name(args[0])

	input, err := readInput(cmd, flowInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	llmCfg, err := server.LLMConfig(cfg)
	if err != nil {
		return err
	}
	client, err := llm.NewClient(cmd.Context(), llmCfg, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	out, err := flows.NewService(client, slog.Default()).Run(cmd.Context(), name, input)
	if err != nil {
		return err
	}

	if prettyOutput && flowOutputFile == "" && observability.NewPrinter(cmd.OutOrStdout()).Print(out) {
		return nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')

	if flowOutputFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(flowOutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("flow output written", "flow", name, "path", flowOutputFile)
	return nil
}
