package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/gearcount/internal/app"
	"github.com/ayusman/gearcount/internal/server"
	"github.com/ayusman/gearcount/internal/settings"
	"github.com/ayusman/gearcount/internal/store"
	"github.com/ayusman/gearcount/internal/tray"
)

var version = "dev"

const usage = `usage: gearcount [command] [flags]

commands:
  serve     run the inspection service (default)
  analyze   inspect a single image and print the result as JSON
  version   print the version
`

func main() {
	cmd, args := parseCommand(os.Args[1:])

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "analyze":
		err = runAnalyze(args, os.Stdout)
	case "version":
		fmt.Println("gearcount", version)
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// parseCommand splits the subcommand from its flags. Without a subcommand,
// or when the first argument is a flag, serve is assumed.
func parseCommand(args []string) (string, []string) {
	if len(args) == 0 || len(args[0]) == 0 || args[0][0] == '-' {
		return "serve", args
	}
	return args[0], args[1:]
}

type serveOptions struct {
	listen         string
	dataDir        string
	camera         int
	cameraSet      bool
	still          string
	pluginDir      string
	webDir         string
	tray           bool
	motion         float64
	recordInterval time.Duration
}

func parseServeFlags(args []string) (serveOptions, error) {
	opts := serveOptions{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&opts.listen, "listen", ":8080", "HTTP listen address")
	fs.StringVar(&opts.dataDir, "data", defaultDataDir(), "directory for the database and screen grabs")
	fs.IntVar(&opts.camera, "camera", 0, "camera index, overrides the stored setting")
	fs.StringVar(&opts.still, "still", "", "inspect this image instead of a camera")
	fs.StringVar(&opts.pluginDir, "plugins", "", "plugin directory (default <data>/plugins)")
	fs.StringVar(&opts.webDir, "web", "", "static web UI directory (default: search web/ and <data>/web)")
	fs.BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	fs.Float64Var(&opts.motion, "motion", 1.0, "percentage of changed pixels that counts as motion")
	fs.DurationVar(&opts.recordInterval, "record-interval", app.DefaultRecordInterval, "how often an unchanged result is recorded")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "camera" {
			opts.cameraSet = true
		}
	})
	if opts.pluginDir == "" {
		opts.pluginDir = filepath.Join(opts.dataDir, "plugins")
	}
	if opts.webDir == "" {
		opts.webDir = findWebDir(opts.dataDir)
	}
	return opts, nil
}

func runServe(args []string) error {
	opts, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	fmt.Println("gearcount - gear tooth inspection")

	if err := os.MkdirAll(opts.dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(opts.dataDir, "gearcount.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:          st,
		PluginDir:      opts.pluginDir,
		DataDir:        opts.dataDir,
		CameraID:       opts.camera,
		StillImage:     opts.still,
		MotionThresh:   opts.motion,
		RecordInterval: opts.recordInterval,
	})
	defer a.Close()

	if opts.cameraSet {
		if _, err := a.Apply(settings.CameraSelected{Index: opts.camera}); err != nil {
			return err
		}
	}

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Failed to discover plugins in %s: %v", opts.pluginDir, err)
	} else if n := len(a.PluginManager().List()); n > 0 {
		log.Printf("Loaded %d plugin(s) from %s", n, opts.pluginDir)
	}

	if err := a.Start(); err != nil {
		return fmt.Errorf("start inspection: %w", err)
	}

	if opts.webDir != "" {
		fmt.Printf("Serving static files from: %s\n", opts.webDir)
	}
	srv := server.New(server.Config{
		StaticDir: opts.webDir,
		Store:     st,
		App:       a,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", opts.listen)
		errCh <- srv.ListenAndServe(opts.listen)
	}()

	if opts.tray {
		// systray owns the main goroutine until Quit.
		t := tray.New(a)
		t.OnQuit(stop)
		t.OnSettings(func() { openBrowser(browserURL(opts.listen)) })

		reports, unsubscribe := a.Subscribe()
		defer unsubscribe()
		go t.Watch(reports)

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		stop()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Printf("Graceful shutdown complete")
	return nil
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gearcount"
	}
	return filepath.Join(homeDir, ".gearcount")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

// browserURL turns a listen address into a URL a local browser can open.
func browserURL(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}
