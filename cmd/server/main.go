package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/kerkoapp/internal/application"
	"github.com/eugenenazirov/kerkoapp/internal/config"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("kerkoapp", "KerkoApp - web front end for a Kerko bibliography")
	serveCmd := kingpinApp.Command("serve", "Run the HTTP server").Default()
	address := serveCmd.Flag("address", "Listen address, overrides kerkoapp.server.address").String()
	configCmd := kingpinApp.Command("config", "Print the validated configuration as TOML")

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	environ := withAddress(os.Environ(), *address)
	switch command {
	case configCmd.FullCommand():
		if err := printConfig(environ, os.Stdout); err != nil {
			fatal(os.Stderr, err)
		}
	default:
		serve(environ)
	}
}

func serve(environ []string) {
	app, err := application.Create(environ)
	if err != nil {
		fatal(os.Stderr, fmt.Errorf("failed to initialize application: %w", err))
	}
	logger := app.Logger()
	defer func() {
		_ = logger.Sync()
	}()

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), app.Settings().KerkoApp.Server.ShutdownGracePeriod, logger)
}

// withAddress layers the --address flag over the environment.
func withAddress(environ []string, address string) []string {
	if address == "" {
		return environ
	}
	out := append([]string(nil), environ...)
	return append(out, config.EnvPrefix+"_kerkoapp__server__address="+strconv.Quote(address))
}

func printConfig(environ []string, w io.Writer) error {
	cfg, err := config.Load(environ, zap.NewNop())
	if err != nil {
		return err
	}
	out, err := config.Dump(cfg.Mapping)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func fatal(w io.Writer, err error) {
	fmt.Fprintf(w, "kerkoapp: %v\n", err)
	os.Exit(1)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
