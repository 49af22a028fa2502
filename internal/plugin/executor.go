package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/ayusman/gearcount/internal/store"
)

// Executor runs plugins with a per-call timeout.
type Executor struct {
	timeoutMs int
}

// NewExecutor creates a new Executor with the specified timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{
		timeoutMs: timeoutMs,
	}
}

// Execute runs plugin once with req on stdin and parses its stdout as a
// Response.
func (e *Executor) Execute(plugin *Plugin, req *Request) (*Response, error) {
	return e.ExecuteContext(context.Background(), plugin, req)
}

// ExecuteContext is Execute bounded by ctx as well as the executor timeout.
func (e *Executor) ExecuteContext(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("plugin execution timeout after %dms", e.timeoutMs)
	}

	if err != nil {
		if stderrStr := stderr.String(); stderrStr != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderrStr)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}

// Dispatch sends event for in to every plugin, each with its own config, and
// returns how many of them reported success. Failures are logged.
func (e *Executor) Dispatch(ctx context.Context, plugins []*Plugin, event string, in *store.Inspection) int {
	ok := 0
	for _, p := range plugins {
		resp, err := e.ExecuteContext(ctx, p, &Request{Event: event, Inspection: in, Config: p.Config})
		switch {
		case err != nil:
			log.Printf("plugin %s: %s: %v", p.Manifest.Name, event, err)
		case !resp.Success:
			log.Printf("plugin %s: %s: %s", p.Manifest.Name, event, resp.Error)
		default:
			ok++
		}
	}
	return ok
}
