package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/uitools"
)

func main() {
	transport := flag.String("transport", "stdio", "Transport to serve on: stdio or sse")
	port := flag.Int("port", 8091, "Port for the SSE transport")
	templatesDir := flag.String("templates", "", "Optional directory of template overrides")
	dev := flag.Bool("dev", false, "Enable development logging")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	if *dev {
		logCfg = logging.DevelopmentConfig()
	}
	if *transport == "stdio" {
		// stdout carries the protocol stream, so logs go to stderr.
		logCfg.OutputPaths = []string{"stderr"}
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	templates, err := uitools.LoadTemplates(log, *templatesDir)
	if err != nil {
		log.Fatal("template load failed: " + err.Error())
	}
	srv := uitools.NewServer(log, templates)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *transport {
	case "stdio":
		err = srv.Start(ctx)
	case "sse":
		err = srv.StartSSE(ctx, *port)
	default:
		log.Fatal("unknown transport: " + *transport)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal("server error: " + err.Error())
	}
}
