package pixel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// DecodeList reads a JSON array of {"x": int, "y": int, "color": string}
// records. Any element that is not an object, lacks a key, carries a
// non-integer coordinate or a non-string colour fails the whole list.
func DecodeList(r io.Reader) ([]Pixel, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of {x, y, color}", ErrInvalidFormat)
	}

	out := make([]Pixel, 0, len(items))
	for i, it := range items {
		p, err := decodeRecord(it)
		if err != nil {
			return nil, fmt.Errorf("%w: pixel %d: %v", ErrInvalidFormat, i, err)
		}
		out = append(out, p)
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeListBytes is DecodeList over a byte slice.
func DecodeListBytes(data []byte) ([]Pixel, error) {
	return DecodeList(bytes.NewReader(data))
}

func decodeRecord(v any) (Pixel, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Pixel{}, fmt.Errorf("not an object")
	}
	x, err := intField(obj, "x")
	if err != nil {
		return Pixel{}, err
	}
	y, err := intField(obj, "y")
	if err != nil {
		return Pixel{}, err
	}
	c, ok := obj["color"].(string)
	if !ok {
		return Pixel{}, fmt.Errorf("color must be a string")
	}
	return Pixel{X: x, Y: y, Color: c}, nil
}

func intField(obj map[string]any, key string) (int, error) {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("%s out of range", key)
		}
		return int(i), nil
	}
	// 3.0 is an integer value written as a float.
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), nil
}
