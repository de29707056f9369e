package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/aymerick/raymond"
)

// State is the per-execution state machine position. Transitions:
// PENDING → CONNECTING → RUNNING → SUCCEEDED | FAILED | TIMED_OUT.
type State string

const (
	StatePending    State = "PENDING"
	StateConnecting State = "CONNECTING"
	StateRunning    State = "RUNNING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
	StateTimedOut   State = "TIMED_OUT"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// Request describes one remote command execution. Zero-valued timeouts and
// retry counts are filled from the executor's defaults.
type Request struct {
	Host string

	// CommandTemplate is a handlebars template; Args are substituted into
	// its placeholders before dispatch.
	CommandTemplate string
	Args            map[string]string

	// Escalate runs the command with elevated rights, piping the
	// sudo-password credential into sudo when one resolves for the host.
	Escalate bool

	ConnectTimeout time.Duration
	ExecuteTimeout time.Duration
	MaxRetries     int

	Actor string
}

// RenderCommand produces the final command line from the template and args.
func (r *Request) RenderCommand() (string, error) {
	tpl, err := raymond.Parse(r.CommandTemplate)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	command, err := tpl.Exec(r.Args)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	command = strings.TrimSpace(command)

	if command == "" {
		return "", ErrEmptyCommand
	}

	return command, nil
}

// Result is the outcome of one execution. ErrorKind is empty on success.
type Result struct {
	ExecutionID string
	Host        string
	Command     string

	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	State     State
	Succeeded bool
	ErrorKind ErrorKind
	Message   string
}
