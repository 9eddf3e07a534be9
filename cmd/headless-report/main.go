package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
)

func main() {
	var opts reportOptions
	var configPath string
	var copyReport bool

	flag.IntVar(&opts.runs, "runs", 5, "number of headless shows")
	flag.IntVar(&opts.frames, "frames", 600, "frames per show")
	flag.Int64Var(&opts.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&opts.tier, "tier", "large-fireworks-sku", "product SKU that selects the tier")
	flag.StringVar(&opts.pngPath, "png", "", "write a PNG snapshot of run 1 to this path")
	flag.IntVar(&opts.pngFrame, "png-frame", 0, "frame to snapshot (0 = a few frames after the first explosion)")
	flag.IntVar(&opts.plotWidth, "plot-width", 72, "width of the particle-count plot")
	flag.BoolVar(&opts.verbose, "verbose", false, "print the show log of run 1")
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.BoolVar(&copyReport, "copy", false, "copy the report to the clipboard")
	flag.Parse()

	if opts.runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if opts.frames <= 0 {
		fmt.Println("error: -frames must be > 0")
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	opts.cfg = cfg

	var sb strings.Builder
	if err := writeReport(&sb, opts); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(sb.String())

	if copyReport {
		if err := clipboard.WriteAll(sb.String()); err != nil {
			fmt.Printf("warning: clipboard: %v\n", err)
			return
		}
		fmt.Println("(report copied to clipboard)")
	}
}
