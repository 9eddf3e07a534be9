package main

import (
	"fmt"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/fireworks"
)

const snapshotDelay = 5

type reportOptions struct {
	cfg       *config.Config
	runs      int
	frames    int
	seedBase  int64
	seedStep  int64
	tier      string
	pngPath   string
	pngFrame  int
	plotWidth int
	verbose   bool
}

type runStats struct {
	runIndex int
	seed     int64

	explosionFrame int
	haltFrame      int
	teardownFrame  int
	loopState      string

	spawned   int
	removed   int
	fragments int
	peak      int
	history   []int

	snapshotFrame int
	log           string
}

func writeReport(w io.Writer, opts reportOptions) error {
	fmt.Fprintf(w, "=== Headless Fireworks Report ===\n")
	fmt.Fprintf(w, "tier=%s scale=%.2f runs=%d frames=%d seed_base=%d seed_step=%d\n\n",
		opts.tier, fireworks.TierScale(opts.tier), opts.runs, opts.frames, opts.seedBase, opts.seedStep)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		snapshot := ""
		if i == 0 {
			snapshot = opts.pngPath
		}
		rs, err := runShow(i+1, seed, opts, snapshot)
		if err != nil {
			return err
		}
		all = append(all, rs)
		printRun(w, rs)
	}

	printAggregate(w, all)
	fmt.Fprintln(w)
	fmt.Fprintln(w, plotHistory(all[0].history, opts.plotWidth, fmt.Sprintf("live particles per frame, run 1 (seed=%d)", all[0].seed)))

	if opts.verbose {
		fmt.Fprintln(w, "\n=== Show Log (run 1) ===")
		fmt.Fprint(w, all[0].log)
	}
	return nil
}

func runShow(runIndex int, seed int64, opts reportOptions, snapshotPath string) (runStats, error) {
	cfg := opts.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	ts, err := fireworks.NewTestShow(
		fireworks.WithShowTier(opts.tier),
		fireworks.WithShowSeed(seed),
		fireworks.WithShowViewport(cfg.Window.Width, cfg.Window.Height),
		fireworks.WithShowDuration(cfg.Show.Duration()),
		fireworks.WithShowGlow(cfg.Show.Glow),
		fireworks.WithShowVerbose(opts.verbose),
		fireworks.WithEngineOption(fireworks.WithHaltWhenEmpty(cfg.Show.HaltWhenEmpty)),
		fireworks.WithEngineOption(fireworks.WithKeepTrails(cfg.Show.KeepTrails)),
	)
	if err != nil {
		return runStats{}, err
	}

	rs := runStats{runIndex: runIndex, seed: seed, snapshotFrame: -1}
	target := opts.pngFrame
	for f := 1; f <= opts.frames; f++ {
		ts.Frame()
		if snapshotPath == "" || rs.snapshotFrame >= 0 {
			continue
		}
		if target == 0 && len(ts.Explosions) > 0 {
			target = ts.Engine.Stats().ExplosionFrame + snapshotDelay
		}
		if target > 0 && f >= target {
			if err := writeSnapshot(ts, snapshotPath, f); err != nil {
				return runStats{}, err
			}
			rs.snapshotFrame = f
		}
	}

	st := ts.Engine.Stats()
	rs.explosionFrame = markerFrame(st.ExplosionFrame)
	rs.haltFrame = markerFrame(st.HaltFrame)
	rs.loopState = ts.Engine.State().String()
	rs.teardownFrame = -1
	if e, ok := ts.Log.FirstOf(fireworks.LogShow, "teardown"); ok {
		rs.teardownFrame = e.Frame
	}
	rs.spawned = st.Spawned
	rs.removed = st.Removed
	rs.peak = st.PeakParticles
	rs.history = st.History
	if e, ok := ts.Log.FirstOf(fireworks.LogExplosion, "circle"); ok {
		rs.fragments = int(e.NumVal)
	}
	rs.log = ts.Log.Format()
	return rs, nil
}

func writeSnapshot(ts *fireworks.TestShow, path string, frame int) error {
	surf := ts.Surface()
	if surf == nil {
		return fmt.Errorf("snapshot at frame %d: show already torn down", frame)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := surf.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}

func markerFrame(f int) int {
	if f == 0 {
		return -1
	}
	return f
}

func printRun(w io.Writer, rs runStats) {
	fmt.Fprintf(w, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(w, "frame_markers: explosion=%d halt=%d teardown=%d loop=%s\n",
		rs.explosionFrame, rs.haltFrame, rs.teardownFrame, rs.loopState)
	fmt.Fprintf(w, "particle_totals: spawned=%d removed=%d fragments=%d peak=%d\n",
		rs.spawned, rs.removed, rs.fragments, rs.peak)
	if rs.snapshotFrame >= 0 {
		fmt.Fprintf(w, "snapshot_frame=%d\n", rs.snapshotFrame)
	}
	fmt.Fprintln(w)
}

func printAggregate(w io.Writer, all []runStats) {
	var explosions, halts, teardowns []int
	totalSpawned, totalPeak := 0, 0
	for _, rs := range all {
		if rs.explosionFrame >= 0 {
			explosions = append(explosions, rs.explosionFrame)
		}
		if rs.haltFrame >= 0 {
			halts = append(halts, rs.haltFrame)
		}
		if rs.teardownFrame >= 0 {
			teardowns = append(teardowns, rs.teardownFrame)
		}
		totalSpawned += rs.spawned
		totalPeak += rs.peak
	}

	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d\n", len(all))
	fmt.Fprintf(w, "avg_per_run: spawned=%.1f peak=%.1f\n", avg(totalSpawned, len(all)), avg(totalPeak, len(all)))
	fmt.Fprintf(w, "frame_marker_avg: explosion=%s halt=%s teardown=%s\n",
		avgFrameString(explosions), avgFrameString(halts), avgFrameString(teardowns))
	fmt.Fprintf(w, "drained_before_end=%d/%d\n", len(halts), len(all))
}

func plotHistory(history []int, width int, caption string) string {
	if len(history) == 0 {
		return "(no samples)"
	}
	data := make([]float64, len(history))
	for i, v := range history {
		data[i] = float64(v)
	}
	opts := []asciigraph.Option{asciigraph.Height(10), asciigraph.Caption(caption)}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(data, opts...)
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgFrameString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
