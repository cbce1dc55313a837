// matimport imports material descriptors and their shaders and prints what
// became of each request.
//
// Usage:
//
//	matimport [-config file] descriptor...
//	matimport [-config file] -serve addr
//
// With -serve, the loader root is exposed to remote importers over a
// websocket at /assets instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/zeusync/materials/internal/config"
	"github.com/zeusync/materials/internal/core/loader"
	"github.com/zeusync/materials/internal/core/observability/log"
	"github.com/zeusync/materials/internal/injector"
	"github.com/zeusync/materials/internal/material"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file")
	serveAddr := flag.String("serve", "", "serve the loader root over websocket on this address")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *serveAddr != "" {
		err = serve(ctx, cfg, *serveAddr)
	} else {
		err = run(ctx, cfg, flag.Args())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, addr string) error {
	logger := injector.ProvideLogger(cfg)
	defer logger.Sync()

	mux := http.NewServeMux()
	mux.Handle("/assets", loader.NewAssetServer(cfg.Loader.Root, logger))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("asset server listening", log.String("addr", addr), log.String("root", cfg.Loader.Root))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, descriptors []string) error {
	if len(descriptors) == 0 {
		return errors.New("no descriptors given")
	}

	app, cleanup, err := injector.InitializeApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, d := range descriptors {
		if _, err := app.Submit(d); err != nil {
			return err
		}
	}

	runErr := app.Run(ctx)
	failed := report(app.Results())

	if err := app.Shutdown(context.Background()); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr == nil && failed > 0 {
		runErr = fmt.Errorf("%d of %d materials did not load", failed, len(descriptors))
	}
	return runErr
}

// report prints one line per request and returns how many did not load.
func report(results []injector.Result) int {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	failed := 0
	fmt.Fprintln(w, "ENTITY\tADDRESS\tSTATUS\tERROR")
	for _, r := range results {
		status := r.Status.String()
		msg := ""
		if r.Err != nil {
			status = "rejected"
			msg = r.Err.Error()
		}
		if r.Status != material.StatusLoaded || r.Err != nil {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Entity, r.Address, status, msg)
	}
	return failed
}
