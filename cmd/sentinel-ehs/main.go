package main

import (
	"flag"
	"log"

	"sentinel-ehs/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; environment variables override it")
	flag.Parse()

	if err := appbootstrap.Run(*configPath); err != nil {
		log.Fatalf("sentinel-ehs: %v", err)
	}
}
