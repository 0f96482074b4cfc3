package server

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	pb "chat-relay/infrastructure/grpc/chatv1"
	"context"
	"encoding/json"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type ChatServer struct {
	log                  *slog.Logger
	chats                contract.IChatService
	messages             contract.IMessageService
	seen                 contract.ISeenSynchronizer
	gateway              contract.IGateway
	connectionBufferSize int
}

func NewChatServer(log *slog.Logger, chats contract.IChatService, messages contract.IMessageService,
	seen contract.ISeenSynchronizer, gateway contract.IGateway, connectionBufferSize int) *ChatServer {
	return &ChatServer{
		log:                  log,
		chats:                chats,
		messages:             messages,
		seen:                 seen,
		gateway:              gateway,
		connectionBufferSize: connectionBufferSize,
	}
}

func (s *ChatServer) CreateOrGetChat(ctx context.Context, req *pb.CreateOrGetChatRequest) (*pb.CreateOrGetChatResponse, error) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	c, created, err := s.chats.CreateOrGetChat(ctx, chat.CreateChatCommand{UserID: userID, OtherUserID: req.OtherUserID})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.CreateOrGetChatResponse{ChatID: c.ID, Chat: c, Created: created}, nil
}

func (s *ChatServer) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	cmd := chat.CreateMessageCommand{ChatID: req.ChatID, SenderID: userID, Text: req.Text}
	if len(req.Image) > 0 {
		cmd.Image = &chat.ImageUpload{
			Filename: req.ImageFilename,
			Size:     int64(len(req.Image)),
			Content:  bytes.NewReader(req.Image),
		}
	}
	msg, err := s.messages.CreateMessage(ctx, cmd)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SendMessageResponse{Message: msg, Sender: s.chats.LookupUser(ctx, userID)}, nil
}

func (s *ChatServer) GetChatHistory(ctx context.Context, req *pb.GetChatHistoryRequest) (*pb.GetChatHistoryResponse, error) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	history, err := s.chats.GetHistory(ctx, chat.GetHistoryCommand{ChatID: req.ChatID, UserID: userID, Cursor: req.Cursor})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.GetChatHistoryResponse{History: history}, nil
}

// MarkMessagesSeen is the gRPC counterpart of the markMessagesSeen socket event,
// a subscriber stream cannot send events itself.
func (s *ChatServer) MarkMessagesSeen(ctx context.Context, req *pb.MarkMessagesSeenRequest) (*emptypb.Empty, error) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if _, err = s.seen.MarkMessagesSeen(ctx, req.ChatID, userID, req.MessageIDs); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

// Subscribe establishes a long-lived stream for real-time delivery.
// The stream is a connection like a websocket one: it is present for its user and joined to the requested chats.
// This method blocks until the client disconnects or the stream falls behind.
func (s *ChatServer) Subscribe(req *pb.SubscribeRequest, stream pb.ChatService_SubscribeServer) error {
	ctx := stream.Context()
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return errors.MapToGRPCError(err)
	}

	sink := newStreamSink(userID, s.connectionBufferSize)
	persistent := context.WithoutCancel(ctx)
	s.gateway.Connect(persistent, sink)
	defer s.gateway.Disconnect(persistent, sink)

	for _, chatID := range req.ChatIDs {
		if err := s.gateway.Handle(ctx, sink, event.JoinChat{ChatID: chatID}); err != nil {
			return errors.MapToGRPCError(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Subscriber disconnected", "user", userID, "connection", sink.ID())
			return nil
		case <-sink.closed:
			return status.Error(codes.ResourceExhausted, errStreamTooSlow.Error())
		case evt := <-sink.events:
			out, err := toServerEvent(evt)
			if err != nil {
				s.log.Error("Event not encodable", "event", evt.Name(), "error", err)
				continue
			}
			if err := stream.Send(out); err != nil {
				s.log.Error("Failed to push event to stream", "user", userID, "error", err)
				return err
			}
		}
	}
}

func toServerEvent(evt event.Event) (*pb.ServerEvent, error) {
	data, err := json.Marshal(event.Payload(evt))
	if err != nil {
		return nil, err
	}
	return &pb.ServerEvent{Event: string(evt.Name()), Data: data}, nil
}
