package main

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	SrcDir  string
	DstPath string

	HumorScores bool
	StartDate   string
	EndDate     string

	Oracle     string
	OracleCmd  string
	Model      string
	APIKey     string
	Structured bool

	Quiet bool
}

func (c Config) Validate() error {
	if c.SrcDir == "" || c.DstPath == "" {
		return errors.New("usage: chat-extract [flags] <src_dir> <dst_file>")
	}
	if c.Oracle != "command" && c.Oracle != "openai" {
		return fmt.Errorf("unknown -oracle %q (want command or openai)", c.Oracle)
	}
	if c.Oracle == "command" && c.OracleCmd == "" {
		return errors.New("missing -oracle-cmd")
	}
	if c.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
			return fmt.Errorf("invalid -humor-score-start-date %q (want YYYY-MM-DD)", c.StartDate)
		}
	}
	if c.EndDate != "" {
		if _, err := time.Parse("2006-01-02", c.EndDate); err != nil {
			return fmt.Errorf("invalid -humor-score-end-date %q (want YYYY-MM-DD)", c.EndDate)
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Oracle:    "command",
		OracleCmd: "copilot",
		Model:     "gpt-5-mini",
	}
}
