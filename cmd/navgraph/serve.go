package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/navikit/navgraph/internal/config"
	"github.com/navikit/navgraph/internal/server"
	"github.com/navikit/navgraph/internal/store"
	"github.com/navikit/navgraph/pkg/client"
	"github.com/navikit/navgraph/pkg/embed"
	"github.com/navikit/navgraph/pkg/graph"
	"github.com/navikit/navgraph/pkg/pagematcher"
	"github.com/navikit/navgraph/pkg/pathfinder"
	"github.com/navikit/navgraph/pkg/vector"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()
			log.Info("starting", zap.String("config", cfg.String()))

			c, db, err := buildClient(cfg, log)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			srv := server.New(cfg.ListenAddr, c, log)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("shutdown", zap.Error(err))
			}
			return saveSnapshot(c, db, log)
		},
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildClient assembles the store stack from configuration and restores
// the latest snapshot when persistence is enabled.
func buildClient(cfg *config.Config, log *zap.Logger) (*client.Client, *store.SQLiteStore, error) {
	var embedder embed.Embedder
	if cfg.EmbedderEndpoint != "" {
		embedder = embed.NewRemote(cfg.EmbedderEndpoint, cfg.Dimension)
	} else {
		embedder = embed.NewMock(cfg.Dimension)
	}

	g := graph.NewMem()
	vectors := vector.NewManager(vector.Backend(cfg.VectorBackend), cfg.Dimension)

	var db *store.SQLiteStore
	if cfg.SnapshotPath != "" {
		var err error
		db, err = store.NewSQLiteStoreWithDSN(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		snap, err := db.LoadGraph()
		if err != nil {
			return nil, nil, err
		}
		g.Import(snap)
		if err := db.LoadVectors(vectors); err != nil {
			return nil, nil, err
		}
		log.Info("snapshot restored",
			zap.Int("pages", len(snap.Pages)),
			zap.Int("transitions", len(snap.Transitions)))
	}

	c := client.New(client.Options{
		Graph:    g,
		Vectors:  vectors,
		Embedder: embedder,
		Logger:   log,
		PathFinder: pathfinder.Config{
			AlternativeDiscount: cfg.AlternativeDiscount,
		},
		Matcher: pagematcher.Config{
			StructuralThreshold: cfg.StructuralThreshold,
			VectorThreshold:     cfg.VectorThreshold,
			MultiStrategyBoost:  cfg.MultiStrategyBoost,
		},
	})
	return c, db, nil
}

func saveSnapshot(c *client.Client, db *store.SQLiteStore, log *zap.Logger) error {
	if db == nil {
		return nil
	}
	if err := db.SaveGraph(c.ExportGraph()); err != nil {
		return err
	}
	if err := db.SaveVectors(c.Vectors()); err != nil {
		return err
	}
	log.Info("snapshot saved")
	return nil
}
