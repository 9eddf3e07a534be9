package fireworks

import (
	"strings"
	"testing"
)

func TestShowLog_FilterAndLookup(t *testing.T) {
	sl := NewShowLog(false)
	sl.Add(0, LogShow, "initialize", "tier=\"large\"", 1)
	sl.Add(12, LogExplosion, "circle", "fragments=100", 100)
	sl.Add(40, LogLoop, "halt", "drained", 0)
	sl.AddVerbose(41, LogFrame, "particles", "0", 0)

	if len(sl.Entries()) != 3 {
		t.Fatalf("entries = %d, want 3 (verbose entry dropped)", len(sl.Entries()))
	}
	if got := sl.CountCategory(LogExplosion, ""); got != 1 {
		t.Fatalf("explosions = %d", got)
	}
	if e, ok := sl.FirstOf(LogLoop, "halt"); !ok || e.Frame != 40 {
		t.Fatalf("FirstOf = %+v, %v", e, ok)
	}
	if _, ok := sl.LastOf(LogSpawn, "seed"); ok {
		t.Fatal("LastOf found a missing entry")
	}
	if !sl.HasEntry("", "", "fragments=") {
		t.Fatal("HasEntry missed a value substring")
	}
	if got := len(sl.FilterFrameRange(10, 40)); got != 2 {
		t.Fatalf("range entries = %d, want 2", got)
	}
}

func TestShowLog_VerboseRecordsFrames(t *testing.T) {
	sl := NewShowLog(true)
	sl.AddVerbose(1, LogFrame, "particles", "1", 1)
	if !sl.Verbose() || len(sl.Entries()) != 1 {
		t.Fatal("verbose entry not recorded")
	}
}

func TestShowLog_Format(t *testing.T) {
	sl := NewShowLog(false)
	sl.Add(7, LogExplosion, "circle", "fragments=100", 100)
	out := sl.Format()
	if !strings.HasPrefix(out, "[F=007] explosion") {
		t.Fatalf("Format() = %q", out)
	}
	if sl.FormatRange(0, 6) != "" {
		t.Fatal("FormatRange included an out-of-range entry")
	}
}

func TestShowLog_VerboseShowRecordsSpawns(t *testing.T) {
	ts := mustShow(t, WithShowVerbose(true), WithShowViewport(200, 300))
	ts.RunUntilExplosion(2000)
	if got := ts.Log.CountCategory(LogSpawn, "fragment"); got != 100 {
		t.Fatalf("fragment spawn entries = %d, want 100", got)
	}
	if ts.Log.CountCategory(LogRemove, "riser") != 1 {
		t.Fatal("riser removal not logged")
	}
}
