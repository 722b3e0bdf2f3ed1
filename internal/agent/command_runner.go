package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrUnknownCommand is returned for names with no configured command.
var ErrUnknownCommand = errors.New("no command configured")

// ExecCommandRunner runs configured command lines. The input context is
// written to the command's stdin as JSON and its stdout becomes the
// response. Command lines are split on whitespace; no shell is involved.
type ExecCommandRunner struct {
	commands map[string]string
	dir      string
}

// NewExecCommandRunner creates a runner. commands maps a name (usually a
// phase) to a command line; dir is the working directory.
func NewExecCommandRunner(commands map[string]string, dir string) *ExecCommandRunner {
	c := make(map[string]string, len(commands))
	for k, v := range commands {
		c[k] = v
	}
	return &ExecCommandRunner{commands: c, dir: dir}
}

// Has reports whether name has a command.
func (r *ExecCommandRunner) Has(name string) bool {
	return strings.TrimSpace(r.commands[name]) != ""
}

// RunCommand executes the command configured for name.
func (r *ExecCommandRunner) RunCommand(ctx context.Context, name string, input map[string]any) (RawResponse, error) {
	argv := strings.Fields(r.commands[name])
	if len(argv) == 0 {
		return Empty(), fmt.Errorf("%w for %q", ErrUnknownCommand, name)
	}

	stdin, err := json.Marshal(input)
	if err != nil {
		return Empty(), fmt.Errorf("encoding command input: %w", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), "CONDUCTOR_COMMAND="+name)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Empty(), fmt.Errorf("command %q failed: %w: %s", name, err, msg)
		}
		return Empty(), fmt.Errorf("command %q failed: %w", name, err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return Empty(), nil
	}
	return Text(out), nil
}
