// add-humor scores the unscored messages in an existing processed-chat
// document. Oracle calls fan out across a bounded worker pool and the whole
// document is rewritten atomically after every score, so an interrupted run
// loses at most the scores still in flight and can simply be re-run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theimaginaryfoundation/humor-o-meter/pipeline"
	"github.com/theimaginaryfoundation/humor-o-meter/pipeline/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	info, err := os.Stat(cfg.DocPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON file %s does not exist\n", cfg.DocPath)
		os.Exit(1)
	}
	if info.IsDir() {
		fmt.Fprintf(os.Stderr, "%s is not a file\n", cfg.DocPath)
		os.Exit(1)
	}

	oracle, err := buildOracle(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.ScoreOptions{
		StartDate:  cfg.StartDate,
		EndDate:    cfg.EndDate,
		MaxWorkers: cfg.MaxWorkers,
	}
	if !cfg.Quiet {
		opts.Progress = func(ev pipeline.ScoreEvent) {
			fmt.Fprintf(os.Stderr, "progress add-humor: %d/%d score=%d %q\n", ev.Done, ev.Total, ev.Score, ev.Preview)
		}
	}

	res, err := pipeline.AddHumorScores(ctx, cfg.DocPath, oracle, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "records=%d eligible=%d scored=%d out=%s\n",
		res.TotalRecords, res.Eligible, res.Scored, cfg.DocPath)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.StartDate, "humor-score-start-date", "", "Only score messages on/after this date (YYYY-MM-DD)")
	fs.StringVar(&cfg.EndDate, "humor-score-end-date", "", "Only score messages on/before this date (YYYY-MM-DD)")
	fs.IntVar(&cfg.MaxWorkers, "max-workers", cfg.MaxWorkers, "Max concurrent oracle calls")
	fs.StringVar(&cfg.Oracle, "oracle", cfg.Oracle, "Scoring oracle: command (a local LLM CLI) or openai")
	fs.StringVar(&cfg.OracleCmd, "oracle-cmd", cfg.OracleCmd, "Oracle CLI binary, invoked as '<cmd> -p <prompt>'")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use when -oracle=openai (e.g. gpt-5-mini)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.BoolVar(&cfg.Structured, "structured", false, "Request a strict JSON-schema verdict from the openai oracle")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Suppress per-score progress lines")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		cfg.DocPath = filepath.Clean(fs.Arg(0))
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("unexpected extra arguments: %v", fs.Args()[1:])
	}
	return cfg, nil
}

func buildOracle(cfg Config) (pipeline.Oracle, error) {
	switch cfg.Oracle {
	case "command":
		return pipeline.CommandOracle{Command: cfg.OracleCmd, Args: []string{"-p"}}, nil
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY (or pass -api-key)")
		}
		client := openai.NewClient(option.WithAPIKey(apiKey))
		return provider.HumorOracle{Client: &client, Model: cfg.Model, Structured: cfg.Structured}, nil
	default:
		return nil, fmt.Errorf("unknown -oracle %q", cfg.Oracle)
	}
}
