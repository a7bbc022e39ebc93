package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"shopfront/src/auth"
	"shopfront/src/directors"
	"shopfront/src/engine"
	"shopfront/src/settings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server represents the HTTP front end of the catalog
type Server struct {
	Host        string
	Port        int
	Listener    net.Listener
	AuthEnabled bool
	Running     bool

	config     *settings.Arguments
	services   *directors.ServiceManager
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *zap.SugaredLogger
	baseLogger *zap.Logger
	mu         sync.Mutex
	serveDone  chan struct{}
}

// BuildLogger creates the zap logger described by config.
func BuildLogger(config *settings.Arguments) (*zap.Logger, error) {
	var zc zap.Config
	if config.Debug {
		// Development configuration with more verbose output
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	zc.OutputPaths = []string{"stdout"}
	if config.LogDir != "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(config.LogDir, fmt.Sprintf("%s_%s_ServerLog.txt", timestamp, config.Host))
		if config.PrintToScreen {
			zc.OutputPaths = []string{"stdout", logFile}
		} else {
			zc.OutputPaths = []string{logFile}
		}
	}

	return zc.Build()
}

// InitServer initializes the server, including its logger
func InitServer(config *settings.Arguments) (*Server, error) {
	logger, err := BuildLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Replace the global zap loggers
	zap.ReplaceGlobals(logger)

	return NewServer(config, logger)
}

// NewServer wires storage, services and routes with the given logger.
func NewServer(config *settings.Arguments, logger *zap.Logger) (*Server, error) {
	sugar := logger.Sugar()

	store, err := engine.NewAccessoryStore(config, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to create accessory store: %w", err)
	}

	var journal *engine.Journal
	if config.JournalEnabled {
		journal, err = engine.NewJournal(filepath.Join(config.DataDir, "journal"), "accessories", config.MaxJournalFileSize)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	accessoryService := directors.NewAccessoryService(store, journal, config, sugar)
	if config.SeedData {
		if _, err := accessoryService.SeedDefaults(context.Background()); err != nil {
			accessoryService.Close()
			return nil, err
		}
	}

	userStore, err := auth.NewUserStore(config.UserStoreFile, config.EncryptionKey)
	if err != nil {
		accessoryService.Close()
		return nil, fmt.Errorf("failed to open user store: %w", err)
	}
	userService := directors.NewUserService(userStore, auth.NewUserFactory(), sugar)
	for _, u := range config.Users {
		if err := userService.EnsureUser(u.Username, u.Password); err != nil {
			accessoryService.Close()
			return nil, fmt.Errorf("failed to add user %s: %w", u.Username, err)
		}
	}
	if config.AuthEnabled && userStore.Count() == 0 {
		sugar.Warn("Authentication is enabled but no users are configured; all writes will be rejected")
	}

	services := directors.NewServiceManager(accessoryService, directors.NewItemService(sugar), userService, sugar)

	server := &Server{
		Host:        config.Host,
		Port:        config.Port,
		AuthEnabled: config.AuthEnabled,
		config:      config,
		services:    services,
		logger:      sugar,
		baseLogger:  logger,
	}
	server.router = server.routes()
	// Wrap the router itself so not found and method not allowed responses go through the chain too.
	server.handler = server.requestIDMiddleware(server.accessLogMiddleware(server.recoverMiddleware(server.router)))
	server.httpServer = &http.Server{
		Handler:           server.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	return server, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Listener == nil {
		return fmt.Sprintf("%s:%d", s.Host, s.Port)
	}
	return s.Listener.Addr().String()
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.Listener = listener
	s.Running = true
	s.serveDone = make(chan struct{})
	s.mu.Unlock()

	s.logger.Infow("Shopfront server listening", "addr", listener.Addr().String(),
		"storage_engine", s.config.StorageEngine, "auth", s.AuthEnabled)

	go func() {
		defer close(s.serveDone)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("HTTP server stopped unexpectedly", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.mu.Lock()
	wasRunning := s.Running
	s.Running = false
	done := s.serveDone
	s.mu.Unlock()

	var shutdownErr error
	if wasRunning {
		timeout := time.Duration(s.config.ShutdownTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warnw("Graceful shutdown did not finish", "error", err)
			shutdownErr = err
			s.httpServer.Close()
		}
		<-done
	}

	if err := s.services.Close(); err != nil {
		s.logger.Warnf("Error closing services: %v", err)
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	// Flush any buffered log entries
	s.logger.Info("Server shutdown complete")
	s.logger.Sync()

	return shutdownErr
}
