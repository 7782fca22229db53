// chat-extract runs the extraction pipeline: it merges a directory of Slack
// export JSON files, enriches every thread parent into one output record, and
// writes a single pretty-printed JSON document. With -humor-scores it also
// rates each message's humor inline via the configured oracle.
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
	"github.com/theimaginaryfoundation/humor-o-meter/pipeline/fileutils"
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

	info, err := os.Stat(cfg.SrcDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "source folder %s does not exist\n", cfg.SrcDir)
		os.Exit(1)
	}
	if !info.IsDir() {
		fmt.Fprintf(os.Stderr, "%s is not a directory\n", cfg.SrcDir)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.ExtractOptions{
		ScoreHumor: cfg.HumorScores,
		StartDate:  cfg.StartDate,
		EndDate:    cfg.EndDate,
	}
	if cfg.HumorScores {
		oracle, err := buildOracle(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		opts.Oracle = oracle
		// Inline scoring is slow (one oracle call per message) and
		// otherwise silent.
		if !cfg.Quiet {
			opts.Progress = func(done, total int, r pipeline.Record) {
				fmt.Fprintf(os.Stderr, "progress chat-extract: %d/%d %q\n",
					done, total, fileutils.Truncate(fileutils.SanitizeNewlines(r.Message), 50))
			}
		}
	}

	res, err := pipeline.ExtractChats(ctx, cfg.SrcDir, cfg.DstPath, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "files_read=%d entries=%d parents=%d replies_indexed=%d scored=%d out=%s\n",
		res.FilesRead, res.EntriesSeen, res.Parents, res.RepliesIndexed, res.Scored, cfg.DstPath)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.BoolVar(&cfg.HumorScores, "humor-scores", false, "Calculate humor scores inline during extraction (slow; one oracle call per message)")
	fs.StringVar(&cfg.StartDate, "humor-score-start-date", "", "Only score messages on/after this date (YYYY-MM-DD)")
	fs.StringVar(&cfg.EndDate, "humor-score-end-date", "", "Only score messages on/before this date (YYYY-MM-DD)")
	fs.StringVar(&cfg.Oracle, "oracle", cfg.Oracle, "Scoring oracle: command (a local LLM CLI) or openai")
	fs.StringVar(&cfg.OracleCmd, "oracle-cmd", cfg.OracleCmd, "Oracle CLI binary, invoked as '<cmd> -p <prompt>'")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use when -oracle=openai (e.g. gpt-5-mini)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.BoolVar(&cfg.Structured, "structured", false, "Request a strict JSON-schema verdict from the openai oracle")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Suppress per-message progress lines")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		cfg.SrcDir = filepath.Clean(fs.Arg(0))
	}
	if fs.NArg() > 1 {
		cfg.DstPath = filepath.Clean(fs.Arg(1))
	}
	if fs.NArg() > 2 {
		return Config{}, fmt.Errorf("unexpected extra arguments: %v", fs.Args()[2:])
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
