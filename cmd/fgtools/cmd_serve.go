package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"

	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/restapi"
	"fgtools.fluvialgeomorph.org/internal/webui"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only JSON API over the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.app.Config.Port, _ = cmd.Flags().GetInt("port")
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "API server port (default from config)")
	return cmd
}

// serverHandler builds the API handler. The debug pages are only mounted
// outside production.
func (c *cli) serverHandler(api *restapi.RestAPI) http.Handler {
	var extra []func(*httprouter.Router)
	if c.app.Config.Env != appconf.Production {
		extra = append(extra, webui.New(c.app).SetWebUIRoutes)
	}
	return api.Handler(extra...)
}

func (c *cli) serve(ctx context.Context) error {
	logger := c.app.Logger
	api := restapi.NewRestAPI(c.app)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.app.Config.Port),
		Handler:      c.serverHandler(api),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", c.app.Config.Env.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
