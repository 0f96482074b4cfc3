package chatv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName            = "chat.v1.ChatService"
	CreateOrGetChatMethod  = "/" + ServiceName + "/CreateOrGetChat"
	SendMessageMethod      = "/" + ServiceName + "/SendMessage"
	GetChatHistoryMethod   = "/" + ServiceName + "/GetChatHistory"
	MarkMessagesSeenMethod = "/" + ServiceName + "/MarkMessagesSeen"
	SubscribeMethod        = "/" + ServiceName + "/Subscribe"
)

type ChatServiceServer interface {
	CreateOrGetChat(context.Context, *CreateOrGetChatRequest) (*CreateOrGetChatResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetChatHistory(context.Context, *GetChatHistoryRequest) (*GetChatHistoryResponse, error)
	MarkMessagesSeen(context.Context, *MarkMessagesSeenRequest) (*emptypb.Empty, error)
	Subscribe(*SubscribeRequest, ChatService_SubscribeServer) error
}

type ChatService_SubscribeServer interface {
	Send(*ServerEvent) error
	grpc.ServerStream
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateOrGetChat", CreateOrGetChatMethod, ChatServiceServer.CreateOrGetChat),
		unary("SendMessage", SendMessageMethod, ChatServiceServer.SendMessage),
		unary("GetChatHistory", GetChatHistoryMethod, ChatServiceServer.GetChatHistory),
		unary("MarkMessagesSeen", MarkMessagesSeenMethod, ChatServiceServer.MarkMessagesSeen),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// unary decodes the Struct request into Req before the interceptors run,
// so they see the typed request, and encodes Res on the way out.
func unary[Req, Res any](name, fullMethod string, call func(ChatServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			wire := new(structpb.Struct)
			if err := dec(wire); err != nil {
				return nil, err
			}
			in := new(Req)
			if err := FromStruct(wire, in); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "malformed %s request", name)
			}
			handler := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(ChatServiceServer), ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				return toWire(out)
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	wire := new(structpb.Struct)
	if err := stream.RecvMsg(wire); err != nil {
		return err
	}
	in := new(SubscribeRequest)
	if err := FromStruct(wire, in); err != nil {
		return status.Error(codes.InvalidArgument, "malformed Subscribe request")
	}
	return srv.(ChatServiceServer).Subscribe(in, &subscribeServer{stream})
}

type subscribeServer struct {
	grpc.ServerStream
}

func (x *subscribeServer) Send(m *ServerEvent) error {
	wire, err := ToStruct(m)
	if err != nil {
		return err
	}
	return x.ServerStream.SendMsg(wire)
}

type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func (c *ChatServiceClient) CreateOrGetChat(ctx context.Context, in *CreateOrGetChatRequest, opts ...grpc.CallOption) (*CreateOrGetChatResponse, error) {
	out := new(CreateOrGetChatResponse)
	return out, c.invoke(ctx, CreateOrGetChatMethod, in, out, opts)
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	return out, c.invoke(ctx, SendMessageMethod, in, out, opts)
}

func (c *ChatServiceClient) GetChatHistory(ctx context.Context, in *GetChatHistoryRequest, opts ...grpc.CallOption) (*GetChatHistoryResponse, error) {
	out := new(GetChatHistoryResponse)
	return out, c.invoke(ctx, GetChatHistoryMethod, in, out, opts)
}

func (c *ChatServiceClient) MarkMessagesSeen(ctx context.Context, in *MarkMessagesSeenRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.invoke(ctx, MarkMessagesSeenMethod, in, out, opts)
}

func (c *ChatServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	wireIn, err := ToStruct(in)
	if err != nil {
		return err
	}
	if m, ok := out.(proto.Message); ok {
		return c.cc.Invoke(ctx, method, wireIn, m, opts...)
	}
	wireOut := new(structpb.Struct)
	if err = c.cc.Invoke(ctx, method, wireIn, wireOut, opts...); err != nil {
		return err
	}
	return FromStruct(wireOut, out)
}

type ChatService_SubscribeClient interface {
	Recv() (*ServerEvent, error)
	grpc.ClientStream
}

func (c *ChatServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (ChatService_SubscribeClient, error) {
	wire, err := ToStruct(in)
	if err != nil {
		return nil, err
	}
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], SubscribeMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &subscribeClient{stream}
	if err = x.ClientStream.SendMsg(wire); err != nil {
		return nil, err
	}
	if err = x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type subscribeClient struct {
	grpc.ClientStream
}

func (x *subscribeClient) Recv() (*ServerEvent, error) {
	wire := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(wire); err != nil {
		return nil, err
	}
	m := new(ServerEvent)
	if err := FromStruct(wire, m); err != nil {
		return nil, err
	}
	return m, nil
}
