package main

import (
	pb "chat-relay/infrastructure/grpc/chatv1"
	chatclient "chat-relay/infrastructure/grpc/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:9090"`
	Token         string `env:"CHAT_TOKEN,required=true"`
	ChatIDs       string `env:"CHAT_IDS"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run subscribes to the real-time stream and prints every event until Ctrl+C.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chatclient.NewChatClient(config.ServerAddress, config.Token)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = client.Close()
	}()

	var chatIDs []string
	if config.ChatIDs != "" {
		chatIDs = strings.Split(config.ChatIDs, ",")
	}
	stream, err := client.Subscribe(ctx, &pb.SubscribeRequest{ChatIDs: chatIDs})
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}

	log.Info("Connected, listening (Ctrl+C to quit)", "server", config.ServerAddress, "chats", chatIDs)

	for {
		evt, err := stream.Recv()
		if err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				log.Info("Stopping client...")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("stream error: %w", err)
		}
		log.Info(evt.Event, "data", string(evt.Data))
	}
}
