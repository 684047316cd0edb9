// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"

	"mcp-nutrition-scan/internal/config"
	"mcp-nutrition-scan/internal/foodfacts"
	"mcp-nutrition-scan/internal/middleware"
	"mcp-nutrition-scan/internal/scan"
	"mcp-nutrition-scan/internal/storage"
	"mcp-nutrition-scan/internal/units"
)

const (
	ServerName    = "nutrition-scan"
	ServerVersion = "1.0.0"
)

type NutritionServer struct {
	server         *server.Server
	sse            *transport.SSEHandler
	httpServer     *http.Server
	storage        *storage.SQLiteStorage
	samplingClient *SamplingClient
	foodFacts      *foodfacts.Client
	scanner        *scan.Service
	normalizer     *units.Normalizer
	limiter        *middleware.Limiter
	ips            *middleware.IPResolver
	logger         *slog.Logger
	config         *config.Config
	tools          map[string]toolHandler

	stopOnce sync.Once
	stopErr  error
}

func NewNutritionServer(cfg *config.Config, logger *slog.Logger) (*NutritionServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	trusted, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	stor, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &NutritionServer{
		storage:        stor,
		samplingClient: NewSamplingClient(cfg.Gateway, cfg.GatewayTimeout()),
		foodFacts: foodfacts.NewClient(foodfacts.Config{
			BaseURL:           cfg.FoodFacts.BaseURL,
			UserAgent:         cfg.FoodFacts.UserAgent,
			RequestsPerSecond: cfg.FoodFacts.RequestsPerSecond,
		}),
		scanner: scan.NewService(
			scan.WithLogger(logger),
			scan.WithAIJunkScale(cfg.Analysis.AIJunkScale),
		),
		normalizer: units.NewNormalizer(units.WithLogger(logger)),
		limiter:    middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		ips:        middleware.NewIPResolver(trusted),
		logger:     logger,
		config:     cfg,
	}

	mcpLog := slogAdapter{logger: logger}
	sseTransport, sseHandler, err := transport.NewSSEServerTransportAndHandler(
		cfg.MessageEndpoint(),
		transport.WithSSEServerTransportAndHandlerOptionLogger(mcpLog),
	)
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to create SSE transport: %w", err)
	}
	s.sse = sseHandler

	mcpServer, err := server.NewServer(
		sseTransport,
		server.WithServerInfo(protocol.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}),
		server.WithLogger(mcpLog),
	)
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	s.server = mcpServer

	s.registerTools()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GatewayTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler is the full HTTP surface:
// Logging → CORS → RateLimit → APIKey → routes.
// MCP clients connect on /sse and post to /message; POST / takes a bare
// tools/call payload.
func (s *NutritionServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.Handle("/message", s.sse.HandleMessage())
	mux.HandleFunc("/", s.handleHTTP)

	return middleware.Chain(
		mux,
		middleware.Logging(s.logger, s.ips),
		middleware.CORS(s.config.Server.CORSOrigins),
		middleware.RateLimit(s.limiter, s.ips),
		middleware.APIKey(s.config.Server.APIKeys, "/health"),
	)
}

func (s *NutritionServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"name":    ServerName,
		"version": ServerVersion,
	})
}

// handleSSE lifts the server write timeout, which would otherwise cut
// long-lived event streams.
func (s *NutritionServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug("could not clear write deadline", "error", err)
	}
	s.sse.HandleSSE().ServeHTTP(w, r)
}

func (s *NutritionServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<20)).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("tool call failed", "tool", request.Name, "error", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("failed to encode response", "tool", request.Name, "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParams), errors.Is(err, ErrInvalidImage),
		errors.Is(err, storage.ErrDuplicateList), errors.Is(err, storage.ErrSystemList):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, foodfacts.ErrProductNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *NutritionServer) Start(ctx context.Context) error {
	go s.limiter.Run(ctx)
	go func() {
		if err := s.server.Run(); err != nil {
			s.logger.Error("MCP server stopped", "error", err)
		}
	}()

	s.logger.Info("starting nutrition scan server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop closes MCP sessions first so open event streams end before the
// HTTP server waits on them.
func (s *NutritionServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		var errs []error
		if s.server != nil {
			errs = append(errs, s.server.Shutdown(ctx))
		}
		if s.httpServer != nil {
			errs = append(errs, s.httpServer.Shutdown(ctx))
		}
		if s.storage != nil {
			errs = append(errs, s.storage.Close())
		}
		s.stopErr = errors.Join(errs...)
	})
	return s.stopErr
}

func (s *NutritionServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
