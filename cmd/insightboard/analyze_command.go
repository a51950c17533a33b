package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"insightboard/internal/app"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var suggest bool
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a transcript and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			analyzer, err := app.NewAnalyzer(cfg, logger, nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if suggest {
				items, err := analyzer.SuggestActionItems(cmd.Context(), text)
				if err != nil {
					return err
				}
				return enc.Encode(items)
			}
			result, err := analyzer.AnalyzeTranscript(cmd.Context(), text)
			if err != nil {
				return err
			}
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Treat input as context and print suggested action items")
	return cmd
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured LLM providers in attempt order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			analyzer, err := app.NewAnalyzer(cfg, logger, nil)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tAVAILABLE")
			for _, p := range analyzer.Providers() {
				fmt.Fprintf(w, "%s\t%t\n", p.Name, p.IsAvailable)
			}
			return w.Flush()
		},
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
