package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ragchat/app/agent"
	"ragchat/app/api"
	"ragchat/app/middleware"
	"ragchat/config"
	"ragchat/metrics"
	"ragchat/model"
	"ragchat/rag"
	"ragchat/splitter"
	"ragchat/store"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Ingester  api.Ingester
	Retriever api.Retriever
	Answerer  api.Answerer
	Stats     api.StatsProvider
	TempDir   string
	BodyLimit int

	// Metrics and Gatherer are optional; /metrics is served only when
	// Gatherer is set.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
	store      store.VectorStorer
}

// New opens the vector store and wires the providers, the pipelines and
// the HTTP routes. The store is shared by every request.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	embedder, err := model.NewEmbedder(cfg.Embedding)
	if err != nil {
		st.Close()
		return nil, err
	}
	generator, err := model.NewGenerator(cfg.LLM)
	if err != nil {
		st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sp := splitter.New(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	svc := rag.New(st, embedder, sp, cfg.Embedding.BatchSize, logger)
	svc.SetMetrics(m)
	answerer := agent.NewAgent(generator, logger)

	logger.Info("server configured",
		"store", cfg.Store.Driver,
		"embedding_model", embedder.ModelName(),
		"llm_model", generator.ModelName(),
		"chunk_size", sp.Size(),
		"chunk_overlap", sp.Overlap())

	app := NewApp(logger, Deps{
		Ingester:  svc,
		Retriever: svc,
		Answerer:  answerer,
		Stats:     svc,
		TempDir:   cfg.Server.TempDir,
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
		Metrics:   m,
		Gatherer:  reg,
	})

	return &Server{
		listenAddr: cfg.Server.Addr,
		logger:     logger,
		app:        app,
		store:      st,
	}, nil
}

// NewApp builds the fiber application with its middleware and routes.
func NewApp(logger *slog.Logger, deps Deps) *fiber.App {
	var (
		app = fiber.New(fiber.Config{
			ErrorHandler:          api.ErrorHandler(logger),
			BodyLimit:             deps.BodyLimit,
			DisableStartupMessage: true,
		})
		checkHandler  = api.NewCheckHandler(deps.Stats)
		chatHandler   = api.NewChatHandler(deps.Retriever, deps.Answerer)
		uploadHandler = api.NewUploadHandler(deps.Ingester, deps.TempDir, logger)
		check         = app.Group("/check")
	)

	app.Use(middleware.RequestLogger(logger, deps.Metrics))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Post("/upload", uploadHandler.HandleUpload)
	app.Post("/chat", chatHandler.HandleChat)
	check.Get("/healthy", checkHandler.HandleHealthy)
	check.Get("/stats", checkHandler.HandleStats)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return app
}

func (s *Server) App() *fiber.App { return s.app }

// Run serves until Stop is called or the listener fails.
func (s *Server) Run() error {
	s.logger.Info("server listening", "addr", s.listenAddr)
	if err := s.app.Listen(s.listenAddr); err != nil {
		return fmt.Errorf("error to start server: %w", err)
	}
	return nil
}

func (s *Server) Stop() {
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Error("server shutdown", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("close vector store", "error", err)
	}
	s.logger.Info("server stopped")
}
