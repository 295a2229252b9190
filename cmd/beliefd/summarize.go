package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"beliefd/internal/engine"
	"beliefd/internal/summary"
	"beliefd/pkg/types"
)

type summarizeFlags struct {
	intents             string
	collectRequests     string
	query               string
	completionDurations bool
}

func newSummarizeCmd(a *app) *cobra.Command {
	f := &summarizeFlags{}
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize intents and collect requests from JSON files",
		Example: "  beliefd summarize --intents intents.json --collect-requests collects.json\n" +
			"  beliefd summarize --intents intents.json --query \"Which targets are behind schedule?\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.summarize(cmd, f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.intents, "intents", "", "Path to the intents JSON document")
	cmd.Flags().StringVar(&f.collectRequests, "collect-requests", "", "Path to the collect requests JSON document")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Also ask the configured model to analyze the summaries")
	cmd.Flags().BoolVar(&f.completionDurations, "completion-durations", false, "Include per-group completion durations in the intents report")
	return cmd
}

func (a *app) summarize(cmd *cobra.Command, f *summarizeFlags, out io.Writer) error {
	if f.intents == "" && f.collectRequests == "" {
		return errors.New("at least one of --intents or --collect-requests is required")
	}
	var opts []summary.Option
	if f.completionDurations {
		opts = append(opts, summary.WithCompletionDurations())
	}
	sum, err := summary.Summarize(f.intents, f.collectRequests, opts...)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	resp := types.SummariesResponse{
		Intents:         sum.Intents,
		CollectRequests: sum.CollectRequests,
		Context:         sum.Context,
	}
	a.log.Debug().Int("intent_groups", len(resp.Intents)).Int("collect_groups", len(resp.CollectRequests)).Msg("summarized")

	if f.query == "" {
		return writeIndented(out, resp)
	}

	svc, err := buildService(cmd.Context(), a.cfg, a.log)
	if err != nil {
		return err
	}
	defer svc.Close()
	res, err := svc.Generate(cmd.Context(), engine.AnalysisPrompt(resp.Context, f.query))
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return writeIndented(out, types.AnalyzeResponse{
		Response:             res.Response,
		ExecutionTimeSeconds: res.ExecutionSeconds(),
		Context:              resp.Context,
	})
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
