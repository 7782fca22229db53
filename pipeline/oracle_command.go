package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandOracle invokes an LLM command-line tool (the GitHub Copilot CLI by
// default) as a single blocking call, passing the prompt as an argument and
// returning trimmed stdout. The call can take seconds; callers that care
// about cancellation pass a ctx.
type CommandOracle struct {
	// Command is the binary to run, e.g. "copilot".
	Command string
	// Args are inserted before the prompt, e.g. ["-p"].
	Args []string
}

// DefaultCommandOracle matches the original scoring setup: `copilot -p <prompt>`.
func DefaultCommandOracle() CommandOracle {
	return CommandOracle{Command: "copilot", Args: []string{"-p"}}
}

func (o CommandOracle) Respond(ctx context.Context, prompt string) (string, error) {
	if o.Command == "" {
		return "", errors.New("CommandOracle: command is empty")
	}

	args := append(append([]string(nil), o.Args...), prompt)
	cmd := exec.CommandContext(ctx, o.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("CommandOracle: %s not found in PATH: %w", o.Command, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("CommandOracle: %s failed: %w (stderr: %s)", o.Command, err, msg)
		}
		return "", fmt.Errorf("CommandOracle: %s failed: %w", o.Command, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
