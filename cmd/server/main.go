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

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/anujitha615/WayFindersHub/internal/config"
	"github.com/anujitha615/WayFindersHub/internal/models"
	"github.com/anujitha615/WayFindersHub/internal/notify"
	"github.com/anujitha615/WayFindersHub/internal/position"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/spatial"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wayfinders",
		Short:         "WayFinders Hub trip planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			InitLogging()
		},
	}
	root.AddCommand(newServeCmd(), newPlanCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.CheckServe(); err != nil {
				return err
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go app.planner.Run(ctx)

			server := &http.Server{Addr: cfg.Port, Handler: app.router}
			errCh := make(chan error, 1)
			go func() {
				log.Printf("Server starting on port %s", cfg.Port)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Printf("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			log.Printf("server stopped")
			return nil
		},
	}
}

func newPlanCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "plan <start> <destination>",
		Short: "Plan a route from the command line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			geocoder, err := newGeocoder(cfg)
			if err != nil {
				return err
			}
			router, err := newRouter(cfg)
			if err != nil {
				return err
			}

			controller := session.NewController(session.Deps{
				Geocoder:  geocoder,
				Router:    router,
				Positions: position.NewFeed(nil),
				Notifier:  notify.Log{},
			})
			defer controller.Close()

			route, err := controller.Plan(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s\n  -> %s\n", route.StartName, route.EndName)
			_, _ = fmt.Fprintf(out, "Distance: %s  Duration: %s\n",
				spatial.FormatKm(*route.DistanceMeters), spatial.FormatDuration(*route.DurationSeconds))
			for i, step := range route.Instructions {
				_, _ = fmt.Fprintf(out, "%3d. %s\n", i+1, step)
			}
			_, _ = fmt.Fprintf(out, "Suggested name: %s\n", models.DefaultTripName(route.StartName, route.EndName))

			if verbose {
				route.Path = nil
				_, _ = pretty.Fprintf(out, "%# v\n", route)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump the planned route")
	return cmd
}
