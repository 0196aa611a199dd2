package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"devsyslog/internal/app"
	"devsyslog/internal/logging"
	"devsyslog/internal/relay"
	"devsyslog/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	endpoint := flag.String("connect", "", "Relay endpoint")
	flag.Parse()

	controller := app.New(app.Options{ConfigPath: *configPath, Logger: logging.New(os.Stderr, false)})
	cfg, err := controller.Config()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	chosen, err := tui.Run(controller, relay.ResolveEndpoint(*endpoint, cfg.Endpoint))
	if err != nil {
		log.Fatalf("browser exited with error: %v", err)
	}
	for _, e := range chosen {
		fmt.Printf("%d %s\n", e.PID, e.Name)
	}
}
