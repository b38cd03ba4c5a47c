package protocol

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes v with msgpack. Map keys are sorted so equal values always
// produce equal bytes.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes msgpack data into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack decode %T: %w", v, err)
	}
	return nil
}

// Clone returns a structural deep copy of v made by an encode/decode round
// trip. Values crossing the simulation boundary are copied this way so the
// two sides never share memory.
func Clone[T any](v T) (T, error) {
	var out T
	data, err := Marshal(v)
	if err != nil {
		return out, err
	}
	err = Unmarshal(data, &out)
	return out, err
}
