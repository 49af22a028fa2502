// Package main is a hook plugin that raises a desktop notification for
// inspection events. It uses osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ayusman/gearcount/internal/plugin"
)

type config struct {
	Title string `json:"title"`
}

// eventHandler builds the notification body for one event.
type eventHandler func(req *plugin.Request) string

var eventHandlers = map[string]eventHandler{
	plugin.EventAnomaly:  anomalyMessage,
	plugin.EventRecorded: recordedMessage,
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := eventHandlers[req.Event]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}
	if req.Inspection == nil {
		writeErrorResponse("request has no inspection")
		return
	}

	cfg := config{Title: "gearcount"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	if err := notify(cfg.Title, handler(&req)); err != nil {
		writeErrorResponse(fmt.Sprintf("notify failed: %v", err))
		return
	}
	writeSuccessResponse()
}

func anomalyMessage(req *plugin.Request) string {
	in := req.Inspection
	return fmt.Sprintf("%d of %d teeth look anomalous", in.AnomalyCount, in.ToothCount)
}

func recordedMessage(req *plugin.Request) string {
	in := req.Inspection
	return fmt.Sprintf("recorded %d teeth (%s)", in.ToothCount, in.Outcome)
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e",
			fmt.Sprintf("display notification %q with title %q", body, title))
	default:
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: true})
}
