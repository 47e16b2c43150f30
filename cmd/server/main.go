package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/Ko-stant/scene-perception-engine/internal/config"
	"github.com/Ko-stant/scene-perception-engine/internal/scene"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the engine configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	snapshot, err := scene.LoadSnapshotFromFile(cfg.ScenePath)
	if err != nil {
		log.Fatalf("scene: %v", err)
	}

	viewer := scene.User{ID: "viewer", Name: "Viewer", GM: os.Getenv("VIEWER_GM") == "true"}
	logger := NewLogger()

	StartProfiling(GetProfilingConfigFromEnv())

	server, hub, err := assemble(context.Background(), cfg, snapshot, viewer, logger)
	if err != nil {
		log.Fatalf("assemble: %v", err)
	}
	defer hub.CloseAll()

	log.Printf("scene %q loaded, listening on %s", snapshot.Name, cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, server.Router()))
}
