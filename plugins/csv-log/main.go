// Package main is a hook plugin that appends every event it receives as a
// row to a CSV file.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ayusman/gearcount/internal/plugin"
)

type config struct {
	Path string `json:"path"`
}

var header = []string{"time", "event", "id", "source", "outcome", "teeth", "anomalies", "color", "tolerance"}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}
	if req.Inspection == nil {
		writeErrorResponse("request has no inspection")
		return
	}

	cfg := config{Path: "inspections.csv"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.Path == "" {
		writeErrorResponse("missing path")
		return
	}

	if err := appendRow(cfg.Path, &req); err != nil {
		writeErrorResponse(fmt.Sprintf("append %s: %v", cfg.Path, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"path": cfg.Path})
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: true, Data: data})
}

func appendRow(path string, req *plugin.Request) error {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return err
		}
	}

	in := req.Inspection
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	row := []string{
		created.Format(time.RFC3339),
		req.Event,
		in.ID,
		in.Source,
		in.Outcome.String(),
		strconv.Itoa(in.ToothCount),
		strconv.Itoa(in.AnomalyCount),
		in.ForegroundColor.Hex(),
		strconv.Itoa(in.Tolerance),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: false, Error: errMsg})
}
