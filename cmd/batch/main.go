package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"call-insights-go/internal/config"
	"call-insights-go/internal/dataset"
	"call-insights-go/internal/extractor"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/pipeline"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/types"
)

type options struct {
	manifest string
	out      string
	limit    int
	timeout  time.Duration
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every recording listed in a spreadsheet manifest",
		Long: "Reads call ids and audio URLs from the first sheet of --manifest, runs each call\n" +
			"through transcription and analysis, and writes a results workbook to --out.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "manifest workbook (.xlsx)")
	cmd.Flags().StringVar(&opts.out, "out", "results.xlsx", "results workbook to write")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "process at most this many calls (0 = all)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "per-call timeout")
	cmd.MarkFlagRequired("manifest")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	log := logger.Component("batch")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	records, err := dataset.Load(opts.manifest)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if opts.limit > 0 && len(records) > opts.limit {
		records = records[:opts.limit]
	}

	llm := extractor.NewClient(extractor.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Mock:    cfg.LLM.Mock,
	})
	var gen pipeline.Generator
	if llm.Enabled() {
		gen = extractor.NewAnalyzer(llm)
	}
	// No store or webhook: the workbook is the output.
	proc := processor.New(processor.Deps{
		Transcriber: transcription.NewClient(transcription.Config{
			APIKey:       cfg.Transcription.APIKey,
			BaseURL:      cfg.Transcription.BaseURL,
			PollInterval: cfg.Transcription.PollInterval,
			MaxAttempts:  cfg.Transcription.MaxAttempts,
			Mock:         cfg.Transcription.Mock,
		}),
		Pipeline: pipeline.New(gen),
		Model:    llm.Model(),
	})

	results := make([]types.AnalysisResult, 0, len(records))
	failed := 0
	for i, rec := range records {
		if ctx.Err() != nil {
			log.Warn("interrupted, writing partial results")
			break
		}
		callLog := log.WithFields(logrus.Fields{"call_id": rec.CallID, "row": rec.Row, "n": i + 1, "of": len(records)})
		callLog.Info("processing call")

		callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		res, err := proc.Run(callCtx, processor.Job{ID: rec.CallID, FileName: fileName(rec.AudioURL), AudioURL: rec.AudioURL})
		cancel()
		if err != nil {
			failed++
			callLog.WithError(err).Warn("call failed, skipping")
			continue
		}
		results = append(results, res)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.out, err)
	}
	defer f.Close()
	if err := dataset.WriteResults(f, results); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	log.WithFields(logrus.Fields{"calls": len(results), "failed": failed, "out": opts.out}).Info("batch complete")
	return nil
}

// fileName is the last path segment of the recording URL.
func fileName(audioURL string) string {
	u, err := url.Parse(audioURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return audioURL
	}
	return path.Base(u.Path)
}
