package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxDocumentSize bounds how much of a response body is read.
const MaxDocumentSize = 16 << 20

// decodeJSON reads a whole JSON document. Trailing data after the first
// value is an error.
func decodeJSON(r io.Reader) (any, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(b) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)
	}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return v, nil
}
