package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/app/server"
	"ragchat/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragchat-server",
	Short: "Serve document upload and question answering over HTTP",
	Long: `Starts the HTTP API. POST /upload ingests a PDF, Markdown or text file
into the vector store and POST /chat answers a question from the stored
documents.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML or TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal, shutting down server...")
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

