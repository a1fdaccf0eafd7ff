package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/config"
	"ragchat/loader/service"
	"ragchat/model"
	"ragchat/rag"
	"ragchat/splitter"
	"ragchat/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragchat-loader",
	Short: "Ingest documents dropped into the source folder",
	Long: `Watches the configured source folder. Every file that stops changing is
ingested into the vector store and moved to the archive folder, or to the
bad folder when ingestion fails.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatch,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Ingest the given files once and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML or TOML config file")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// pipeline opens the store and builds the ingestion service. The returned
// close function releases the store.
func pipeline(ctx context.Context) (*rag.Service, *config.Config, *slog.Logger, func(), error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open vector store: %w", err)
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing vector store", "error", err)
		}
	}

	embedder, err := model.NewEmbedder(cfg.Embedding)
	if err != nil {
		closeStore()
		return nil, nil, nil, nil, err
	}

	sp := splitter.New(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	return rag.New(st, embedder, sp, cfg.Embedding.BatchSize, logger), cfg, logger, closeStore, nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, logger, closeStore, err := pipeline(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	watcher, err := service.New(cfg.Loader, svc, logger)
	if err != nil {
		return fmt.Errorf("create loader service: %w", err)
	}

	watcher.Run(ctx)
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _, logger, closeStore, err := pipeline(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var errs []error
	for _, path := range args {
		doc, err := svc.AddDocument(ctx, path)
		if err != nil {
			logger.Error("failed to ingest file", "file", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks (document %s)\n", path, len(doc.Chunks), doc.ID)
	}
	return errors.Join(errs...)
}
