package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/InferaIO/infera/internal/config"
	httpserver "github.com/InferaIO/infera/internal/http"
	v1 "github.com/InferaIO/infera/internal/http/v1"
	"github.com/InferaIO/infera/internal/metrics"
	"github.com/InferaIO/infera/internal/tracker"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "infera-tracker",
		Short: "Tracker for peers advertising GPU capacity and the inference jobs they serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")

	if err := root.Execute(); err != nil {
		log.Fatalf("infera-tracker: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One store, injected into both components
	st := tracker.NewStore(cfg.LivenessTimeout)
	dir := tracker.NewDirectory(st)
	disp := tracker.NewDispatcher()
	eng := tracker.NewEngine(st, disp)

	metrics.RegisterOnlinePeers(func() float64 { return float64(st.OnlineCount()) })

	if cfg.SweepInterval > 0 {
		go st.Sweep(ctx, cfg.SweepInterval)
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: httpserver.NewServer(&v1.API{Directory: dir, Engine: eng, Dispatch: disp}),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("infera-tracker listening on %s", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("infera-tracker shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
