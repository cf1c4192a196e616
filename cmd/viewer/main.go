package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pcb-viewer/internal/config"
	"pcb-viewer/internal/server"
	"pcb-viewer/internal/viewer"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	model := flag.String("model", "", "Path to the .gltf/.glb model (default: model/cB.gltf)")
	steps := flag.String("tutorial", "", "Path to a tutorial steps JSON file (default: built-in)")
	port := flag.Int("port", 0, "HTTP port (default: 8080)")
	size := flag.Int("size", 0, "Default frame size in pixels (default: 512)")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		ModelPath:  *model,
		Tutorial:   *steps,
		Port:       *port,
		RenderSize: *size,
	})

	opts, err := viewer.OptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session, err := viewer.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// A missing model is logged by Open; the page still comes up empty.
	session.Open()

	srv := server.NewServer(cfg.Port, session, cfg.RenderSize)
	log.Fatal(srv.Start())
}
