package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/bloglist/internal/config"
	"github.com/robalobadob/bloglist/internal/store"
	"github.com/robalobadob/bloglist/internal/store/mongo"
	"github.com/robalobadob/bloglist/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	root := &cobra.Command{
		Use:           "bloglist",
		Short:         "Blog list API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg = config.Load()
			return setupLogging(cfg.Log)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newSeedCmd(&cfg))
	return root
}

// openStore connects the backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		log.Info().Str("db", cfg.MongoDB).Msg("connecting to MongoDB")
		return mongo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.DriverSQLite:
		log.Info().Str("path", cfg.SQLitePath).Msg("opening SQLite")
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
