package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/gearcount/internal/capture"
	"github.com/ayusman/gearcount/internal/inspect"
	"github.com/ayusman/gearcount/internal/report"
	"github.com/ayusman/gearcount/internal/settings"
	"github.com/ayusman/gearcount/internal/store"
)

type analyzeOptions struct {
	image     string
	color     string
	tolerance int
	out       string
	fg        string
	profile   string
	db        string
}

func parseAnalyzeFlags(args []string) (analyzeOptions, error) {
	def := settings.Default()
	opts := analyzeOptions{}
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.StringVar(&opts.image, "image", "", "image to inspect (required)")
	fs.StringVar(&opts.color, "color", def.ForegroundColor.Hex(), "foreground color as #rrggbb")
	fs.IntVar(&opts.tolerance, "tolerance", def.Tolerance, "color tolerance")
	fs.StringVar(&opts.out, "out", "", "write the annotated image (JPEG) here")
	fs.StringVar(&opts.fg, "foreground", "", "write the segmented foreground (JPEG) here")
	fs.StringVar(&opts.profile, "profile", "", "write the radial profile plot (PNG) here")
	fs.StringVar(&opts.db, "db", "", "record the inspection in this database")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.image == "" && fs.NArg() == 1 {
		opts.image = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if opts.image == "" {
		return opts, errors.New("-image is required")
	}
	return opts, nil
}

func (o analyzeOptions) settings() (settings.Settings, error) {
	p := settings.Patch{ForegroundColor: &o.color, Tolerance: &o.tolerance}
	events, err := p.Events()
	if err != nil {
		return settings.Settings{}, err
	}
	return settings.Apply(settings.Default(), events...)
}

// runAnalyze inspects one image and writes the inspection as JSON to w. An
// image without a gear is a valid result, not an error.
func runAnalyze(args []string, w io.Writer) error {
	opts, err := parseAnalyzeFlags(args)
	if err != nil {
		return err
	}
	s, err := opts.settings()
	if err != nil {
		return err
	}

	frame, err := capture.LoadImage(opts.image)
	if err != nil {
		return err
	}
	defer frame.Close()

	p := inspect.NewPipeline()
	defer p.Close()

	r, err := p.Inspect(&frame, s)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", opts.image, err)
	}

	in := store.NewInspection(store.SourceAnalyze, s, r.Result)
	in.ImagePath = opts.image
	if abs, err := filepath.Abs(opts.image); err == nil {
		in.ImagePath = abs
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, r.Frame(inspect.ViewOutput), 0644); err != nil {
			return fmt.Errorf("write output image: %w", err)
		}
	}
	if opts.fg != "" {
		if err := os.WriteFile(opts.fg, r.Frame(inspect.ViewForeground), 0644); err != nil {
			return fmt.Errorf("write foreground image: %w", err)
		}
	}
	if opts.profile != "" {
		err := report.SaveProfilePNG(opts.profile, r.Result)
		switch {
		case errors.Is(err, report.ErrNoProfile):
			log.Printf("No profile to plot for %s: %s", opts.image, r.Result.Outcome)
		case err != nil:
			return fmt.Errorf("write profile: %w", err)
		}
	}

	if opts.db != "" {
		st, err := store.New(opts.db)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if err := st.Inspections().Create(in); err != nil {
			return fmt.Errorf("record inspection: %w", err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(in)
}
