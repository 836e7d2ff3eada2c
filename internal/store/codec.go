package store

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// marshalBody encodes document fields in msgpack with map keys sorted, so
// equal field sets always produce equal bytes.
func marshalBody(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingBody, err)
	}

	return buf.Bytes(), nil
}

// unmarshalBody decodes fields written by marshalBody. Integers decode as
// int64 and floats as float64.
func unmarshalBody(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}

	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingBody, err)
	}

	return fields, nil
}
