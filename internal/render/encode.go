// Package render encodes diagram markup for a PlantUML server and fetches
// the rendered image.
package render

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

// Encode deflates markup and writes it in PlantUML's URL-safe base64
// variant. A trailing partial group is zero-filled to four characters.
func Encode(markup string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create deflate writer: %w", err)
	}
	if _, err := io.WriteString(w, markup); err != nil {
		return "", fmt.Errorf("deflate markup: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("deflate markup: %w", err)
	}

	out := encoding.EncodeToString(buf.Bytes())
	return out + strings.Repeat("0", (4-len(out)%4)%4), nil
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if len(encoded)%4 != 0 {
		return "", fmt.Errorf("decode diagram: length %d is not a multiple of 4", len(encoded))
	}
	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode diagram: %w", err)
	}
	data, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("inflate diagram: %w", err)
	}
	return string(data), nil
}
