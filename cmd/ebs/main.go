package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/ebs"
)

func main() {
	clientID := flag.String("clientID", "", "Extension Client ID")
	ownerID := flag.String("ownerID", "", "Extension Owner ID")
	secretB64 := flag.String("secret", "", "Extension Secret (base64)")
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	if *clientID == "" || *ownerID == "" || *secretB64 == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	secret, err := ebs.DecodeSecret(*secretB64)
	if err != nil {
		log.Fatalf("[EBS] %v", err)
	}

	svc, err := ebs.New(*clientID, *ownerID, secret,
		ebs.WithPubSubURL(cfg.EBS.PubSubURL),
		ebs.WithCooldown(time.Duration(cfg.EBS.CooldownMs)*time.Millisecond),
		ebs.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
		log.Fatalf("[EBS] %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.EBS.Addr,
		Handler:           svc.Handler(cfg.EBS.ClientDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[EBS] listening on %s", cfg.EBS.Addr)
	log.Fatal(srv.ListenAndServe())
}
