package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/averen/sigil/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Sigil server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		comps, err := buildComponents(configPath())
		if err != nil {
			return err
		}
		defer func() {
			if err := comps.auditor.Close(); err != nil {
				log.Error().Err(err).Msg("closing auditor")
			}
		}()
		if addr == "" {
			addr = comps.cfg.Server.Addr
		}

		log.Info().
			Int("users", len(comps.cfg.Users)).
			Int("policies", len(comps.cfg.Policies)).
			Msg("configuration loaded")

		srv := api.NewServer(comps.service, comps.policies, comps.auditor, comps.cfg.Routes)
		handler, err := srv.Routes()
		if err != nil {
			return fmt.Errorf("building routes: %w", err)
		}

		server := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides config)")
}
