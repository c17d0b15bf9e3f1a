package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/cleanblog"
	"github.com/eringen/cleanblog/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		if err := runServe(args); err != nil {
			log.Fatalf("cleanblog: %v", err)
		}
	case "version":
		fmt.Printf("cleanblog %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", cleanblog.EnvOr("CLEANBLOG_CONFIG", "cleanblog.toml"), "path to TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cleanblog.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	app := cleanblog.New(cfg, views.New(cfg))
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- app.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Echo.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`cleanblog - a minimal blog built with Go, Echo, and templ

Usage:
  cleanblog [command] [flags]

Commands:
  serve         Start the web server (default)
  version       Print the cleanblog version
  help          Show this help message

Flags for serve:
  -config path  TOML config file (default cleanblog.toml, env CLEANBLOG_CONFIG)

Environment:
  CLEANBLOG_SESSION_SECRET is required. CLEANBLOG_ADDR, CLEANBLOG_DATABASE_PATH,
  CLEANBLOG_SITE_NAME, CLEANBLOG_SITE_URL, CLEANBLOG_UPLOAD_DIR, and
  CLEANBLOG_LOG_LEVEL override the config file.`)
}
