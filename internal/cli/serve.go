package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vjranagit/isstracker/pkg/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg := opts.cfg

	a, err := openApp(cfg, "")
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Infof("version: %s", Version)
	a.log.Infof("storage path: %s, in memory: %t", cfg.Storage.Path, cfg.Storage.InMemory)
	a.log.Infof("feed: %s", cfg.Feed.URL)

	// a failed first pull is not fatal; /epochs retries on every call
	if cfg.Feed.IngestOnStart {
		if _, err := a.reconciler.Refresh(cmd.Context()); err != nil {
			a.log.Warnf("initial ingest: %s", err)
		}
	}

	server := api.NewServer(cfg.Server.ListenAddr, cfg.Server.Timeout, a.tracker)
	fmt.Fprintf(cmd.OutOrStdout(), "isstracker v%s listening on %s\n", Version, cfg.Server.ListenAddr)

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			a.log.Criticalf("server error: %s", err)
			return err
		}
		return nil
	case sig := <-sigChan:
		a.log.Infof("received signal: %v", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		a.log.Errorf("shutdown: %s", err)
		return err
	}
	a.log.Infof("server stopped")
	return nil
}
