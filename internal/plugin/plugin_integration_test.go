package plugin

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// buildPlugin compiles one of the bundled plugins into a temp plugin dir.
func buildPlugin(t *testing.T, name string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	src := filepath.Join("..", "..", "plugins", name)
	manifest, err := os.ReadFile(filepath.Join(src, "plugin.json"))
	if err != nil {
		t.Skipf("plugin %s not found: %v", name, err)
	}

	root := t.TempDir()
	dir := filepath.Join(root, name)
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0644)

	cmd := exec.Command("go", "build", "-o", filepath.Join(dir, name), "./"+filepath.ToSlash(filepath.Join("plugins", name)))
	cmd.Dir = filepath.Join("..", "..")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot build plugin %s: %v\n%s", name, err, out)
	}
	return root
}

func TestPlugin_CSVLog_Integration(t *testing.T) {
	root := buildPlugin(t, "csv-log")
	out := filepath.Join(t.TempDir(), "log.csv")
	cfg, _ := json.Marshal(map[string]string{"path": out})
	os.WriteFile(filepath.Join(root, "csv-log", "config.json"), cfg, 0644)

	mgr := NewManager(root)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	subs := mgr.Subscribers(EventRecorded)
	if len(subs) != 1 {
		t.Fatalf("expected csv-log to subscribe to recorded, got %d", len(subs))
	}

	executor := NewExecutor(10000)
	for i := 0; i < 2; i++ {
		resp, err := executor.Execute(subs[0], &Request{Event: EventRecorded, Inspection: testInspection(), Config: subs[0].Config})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !resp.Success {
			t.Fatalf("Execute() failed: %s", resp.Error)
		}
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("csv not written: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][1] != EventRecorded || rows[1][5] != "24" {
		t.Errorf("unexpected row %v", rows[1])
	}
}

func TestPlugin_Notify_Integration(t *testing.T) {
	root := buildPlugin(t, "notify")

	mgr := NewManager(root)
	mgr.Discover()

	plug, err := mgr.Get("notify")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// an inspection-less request is rejected before anything is shown
	resp, err := NewExecutor(10000).Execute(plug, &Request{Event: EventAnomaly})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure without an inspection")
	}

	resp, err = NewExecutor(10000).Execute(plug, &Request{Event: "bogus", Inspection: testInspection()})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure for unknown event")
	}
}
