package service

import (
	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// jsonCodec carries plain Go structs as JSON. It takes over the "json" codec
// name, whose built-in version only accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON configures a handler or client to use the JSON codec.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
