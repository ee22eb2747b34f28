// Package main is the entry point for the samplertools API server
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/oletizi/samplertools/pkg/akai"
	"github.com/oletizi/samplertools/pkg/api"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	tool := flag.String("akai-tool", "", "Disk tool binary")
	device := flag.String("akai-device", "", "Disk image or block device")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var lister akai.PartitionLister
	if *tool != "" && *device != "" {
		lister, err = akai.NewToolLister(akai.ToolConfig{Tool: *tool, Device: *device}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Disk tool error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Starting samplertools API server on %s...\n", *addr)
	fmt.Printf("Swagger docs available at http://localhost%s/swagger/index.html\n", *addr)

	server := api.NewServer(nil, lister, logger)
	defer server.Close()
	if err := server.Run(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
