package main

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	DocPath string

	StartDate  string
	EndDate    string
	MaxWorkers int

	Oracle     string
	OracleCmd  string
	Model      string
	APIKey     string
	Structured bool

	Quiet bool
}

func (c Config) Validate() error {
	if c.DocPath == "" {
		return errors.New("usage: add-humor [flags] <json_file>")
	}
	if c.MaxWorkers < 0 {
		return errors.New("max-workers must be >= 0")
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
		MaxWorkers: 10,
		Oracle:     "command",
		OracleCmd:  "copilot",
		Model:      "gpt-5-mini",
	}
}
