package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/corvid/internal/archive"
	"github.com/arcanaland/corvid/internal/deck"
	"github.com/arcanaland/corvid/internal/logger"
	"github.com/arcanaland/corvid/internal/oracle"
	"github.com/arcanaland/corvid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the readings API",
	Long: `Serve loads the card database once and starts the HTTP API.
The server refuses to start if the card database is missing, empty or malformed.

The database is read from $XDG_DATA_HOME/corvid/cards.yaml unless the config
file or CORVID_CARDS points elsewhere. On a fresh install, copy the bundled
data/cards.yaml there first:

  mkdir -p ~/.local/share/corvid
  cp data/cards.yaml ~/.local/share/corvid/cards.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Address = addr
		}

		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		d, err := deck.Load(cfg.Data.Cards)
		if err != nil {
			return cardsError(cfg.Data.Cards, err)
		}
		log.Info("card database loaded", zap.String("path", d.Path), zap.Int("cards", d.Len()))

		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		relay := oracle.New(cfg.Oracle, log)
		store := archive.New(cfg.Data.Sessions, log)

		srv, err := server.New(d, relay, store, log, server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})
		if err != nil {
			return err
		}

		httpServer := &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s %s on %s\n",
			color.HiMagentaString(server.ServiceName),
			color.HiBlackString("v"+server.Version),
			color.CyanString(cfg.Server.Address))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("listening",
				zap.String("address", cfg.Server.Address),
				zap.String("ollama", relay.Endpoint()),
				zap.String("sessions", store.Dir()),
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// cardsError explains how to seed the card database when it is missing
func cardsError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading card database: %w\n"+
			"copy data/cards.yaml to %s or set CORVID_CARDS to an existing file", err, path)
	}
	return fmt.Errorf("error loading card database: %w", err)
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides the config file)")
}
