package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/bootstrap"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		runServer()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Ephemeral single-use credential server")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the credential server")
	fmt.Println("\nOptions:")
	fmt.Println("  -h, --help    Show this help message")
}

func runServer() {
	cfg := config.Load()

	if err := bootstrap.Run(context.Background(), cfg); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}
