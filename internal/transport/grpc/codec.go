package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONContentSubtype selects jsonCodec on a call, as in
// grpc.CallContentSubtype(JSONContentSubtype). The clinic service speaks
// JSON; health and reflection keep the default proto codec.
const JSONContentSubtype = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONContentSubtype
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
