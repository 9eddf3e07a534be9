package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/overlay"
	"github.com/Garsondee/Bits-Fireworks/internal/settings"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	store, err := settings.Open("bits-fireworks")
	if err != nil {
		log.Printf("[Fireworks] Warning: %v (selection will not persist)", err)
	}

	var opts []overlay.Option
	if cfg.Audio.Enabled {
		opts = append(opts, overlay.WithSound(overlay.NewAudioSound(cfg.Audio.Volume)))
	}

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	if err := ebiten.RunGameWithOptions(overlay.New(cfg, store, opts...), &ebiten.RunGameOptions{
		ScreenTransparent: true,
	}); err != nil {
		log.Fatal(err)
	}
}
