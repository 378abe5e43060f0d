package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geoportal-waw/waw-events/internal/api"
	"github.com/geoportal-waw/waw-events/internal/logger"
)

var flagAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the events HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides WAW_BIND_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	drv, err := a.inlineDriver(store)
	if err != nil {
		return err
	}

	addr := a.cfg.BindAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(drv, store, api.WithLogger(a.log.With(logger.Fields{"component": "api"})))
	return srv.ListenAndServe(ctx, addr)
}
