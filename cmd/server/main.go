package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/easelhq/easel/internal/infrastructure/config"
	"github.com/easelhq/easel/internal/server"
)

func main() {
	port := flag.String("port", "", "Override listen port")
	host := flag.String("host", "", "Override listen host")
	toolsEndpoint := flag.String("tools", "", "Override outbound MCP tools endpoint")
	dev := flag.Bool("dev", false, "Enable development logging")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *toolsEndpoint != "" {
		cfg.Tools.Endpoint = *toolsEndpoint
	}
	if *dev {
		cfg.Logging.Development = true
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
