package main

import (
	"chat-relay/auth"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/grpc/chatv1"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/search"
	"chat-relay/infrastructure/userdir"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the servers lifecycle, and centralizes error reporting.
// Every defer (database, index) runs before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf(".env error: %w", err)
	}
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB & Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.DebugPort > 0 && logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, ChatMapper)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Collaborators
	moderator, err := buildModerator(config, charReplacement, logger)
	if err != nil {
		return exitConfig, err
	}
	images, err := storage.NewImageStore(logger, config.ImageDir, config.ImageBaseURL, config.MaxImageSize)
	if err != nil {
		return exitRuntime, fmt.Errorf("image store: %w", err)
	}
	tokens, err := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	if err != nil {
		return exitConfig, err
	}
	users := userdir.NewClient(config.UserServiceURL, config.UserServiceTimeout)
	if config.UserServiceURL == "" {
		logger.Warn("USER_SERVICE_URL not set, profiles fall back to placeholders")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	// 4. Real-time state & services
	presence := runtime.NewPresence()
	rooms := runtime.NewRooms()
	connections := runtime.NewRegistry()
	deliverer := runtime.NewDeliverer(logger, presence, rooms, connections, metrics, config.SinkTimeout)

	chats := repositories.NewChatRepository(db, logger)
	messages := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	index := search.NewMessageIndex(blugeWriter, logger)

	seen := services.NewSeenService(logger, chats, messages, deliverer, metrics)
	messageService := services.NewMessageService(logger, chats, messages, images, presence, rooms, deliverer, index, moderator, metrics)
	chatService := services.NewChatService(logger, chats, messages, users, seen, index)

	broadcast := make(chan event.Event, config.BroadcastBufferSize)
	gateway := runtime.NewGateway(logger, presence, rooms, connections, chats, runtime.NewTyping(rooms, deliverer), seen, broadcast, metrics)

	// 5. Supervised workers
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		workers.NewEventFanout(logger, broadcast, connections, metrics, config.SinkTimeout),
		workers.NewHealthMonitoringWorker(logger, metrics, presence, config.MetricInterval),
		workers.NewChannelCapacityWorker(logger, metrics,
			[]workers.NamedChannel{{Name: "broadcast", Channel: broadcast}}, config.MetricInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	errChan := make(chan error, 2)

	// 6. HTTP (REST, websocket, metrics)
	router := api.NewRouter(logger, api.Config{
		Chats:          chatService,
		Messages:       messageService,
		Tokens:         tokens,
		Socket:         ws.NewHandler(logger, gateway, tokens, config.ConnectionBufferSize).Serve,
		Gatherer:       registry,
		UploadsDir:     config.ImageDir,
		MaxUploadBytes: config.MaxImageSize,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. gRPC
	address := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			tokens.UnaryInterceptor(),
		),
		grpc.ChainStreamInterceptor(tokens.StreamInterceptor()),
	)
	chatv1.RegisterChatServiceServer(s, server.NewChatServer(logger, chatService, messageService, seen, gateway, config.ConnectionBufferSize))
	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed service", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 9. Graceful shutdown: servers first, then workers, then storage through the defers.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	s.GracefulStop()
	supervisor.Stop()
	stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// buildModerator merges CENSORED_WORDS with the dictionaries of CENSORED_WORDS_DIR.
func buildModerator(config internal.Config, charReplacement rune, logger *slog.Logger) (*moderation.Moderator, error) {
	words := config.CensoredWordList()
	if config.CensoredWordsDir != "" {
		dictionary, err := moderation.LoadDictionaries(os.DirFS(config.CensoredWordsDir), ".")
		if err != nil {
			return nil, fmt.Errorf("censored dictionaries: %w", err)
		}
		logger.Info("Censored dictionaries loaded", "languages", dictionary.Languages, "words", len(dictionary.Words))
		words = append(words, dictionary.Words...)
	}
	return moderation.NewModerator(words, charReplacement, logger)
}

// ChatMapper renders chat and message records in the Badger inspector.
func ChatMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	record := repositories.Describe(key, val)
	row.Type = record.Kind
	row.Detail = record.Detail
	return row
}
