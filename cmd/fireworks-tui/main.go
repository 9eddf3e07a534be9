package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/settings"
	"github.com/Garsondee/Bits-Fireworks/internal/sfx"
	"github.com/Garsondee/Bits-Fireworks/internal/terminal"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	logPath := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// The terminal owns stdout while the show runs.
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	store, err := settings.Open("bits-fireworks")
	if err != nil {
		log.Printf("[Terminal] Warning: %v (selection will not persist)", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	var opts []terminal.Option
	if cfg.Audio.Enabled {
		player := sfx.NewPlayer(cfg.Audio.Volume)
		if err := player.Initialize(); err != nil {
			// Non-fatal, the show runs silently.
			log.Printf("[Terminal] audio: %v", err)
		} else {
			defer player.Close()
			opts = append(opts, terminal.WithSound(player))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := terminal.New(screen, cfg, store, opts...).Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[Terminal] %v", err)
	}
}
