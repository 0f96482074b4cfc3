// Package chatv1 describes the chat.v1.ChatService gRPC service.
// Requests, responses and stream events travel as google.protobuf.Struct through
// grpc's default proto codec. The typed messages of this package are mapped onto
// the Struct by their JSON field names.
package chatv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct maps a typed message onto its wire form.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	s := new(structpb.Struct)
	if err = protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return s, nil
}

// FromStruct fills a typed message from its wire form.
func FromStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// toWire leaves proto messages (emptypb.Empty) untouched.
func toWire(v any) (proto.Message, error) {
	if m, ok := v.(proto.Message); ok {
		return m, nil
	}
	return ToStruct(v)
}
