// Command vulnx serves the VulnX scan console.
// Usage: go run ./cmd/vulnx [-listen :8080] [-scan-service URL] [-history-db FILE]
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/vulnx/internal/cli"
	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/server"
)

func main() {
	args, err := cli.ParseConsoleArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	logger := logging.NewWriterLogger("vulnx", os.Stdout, args.LogLevel)

	srv, err := server.NewServer(server.Config{
		ListenAddr: args.ListenAddr,
		AppConfig:  args.AppConfig(),
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Server setup: %v", err)
	}

	fmt.Println("===========================================")
	fmt.Println("   VulnX - Website Vulnerability Scanner")
	fmt.Println("===========================================")
	fmt.Printf("Console:      http://localhost%s\n", args.ListenAddr)
	fmt.Printf("Scan Service: %s\n", args.ScanService)
	if args.HistoryDB != "" {
		fmt.Printf("History:      %s\n", args.HistoryDB)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", logging.Field{Key: "error", Value: err.Error()})
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("console shutdown", logging.Field{Key: "error", Value: err.Error()})
	}
}
