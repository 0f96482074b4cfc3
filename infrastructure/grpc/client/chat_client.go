package client

import (
	pb "chat-relay/infrastructure/grpc/chatv1"
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ChatClient is a chat.v1 client authenticated with a bearer token.
type ChatClient struct {
	*pb.ChatServiceClient
	conn *grpc.ClientConn
}

func NewChatClient(target, token string, opts ...grpc.DialOption) (*ChatClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(bearer(token)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &ChatClient{ChatServiceClient: pb.NewChatServiceClient(conn), conn: conn}, nil
}

func (c *ChatClient) Close() error {
	return c.conn.Close()
}

type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	if b == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }
