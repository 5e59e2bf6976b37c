// ABOUTME: KeyedBlob is a per-user, per-key opaque JSON value
// ABOUTME: Three namespaces share the shape: progress, test completions, unlocks
package models

import (
	"encoding/json"
	"fmt"
)

// Namespace identifies one of the keyed-blob collections
type Namespace string

const (
	NamespaceProgress        Namespace = "progress"
	NamespaceTestCompletions Namespace = "test-completions"
	NamespaceUnlocks         Namespace = "unlocks"
)

// Namespaces lists every keyed-blob namespace
var Namespaces = []Namespace{NamespaceProgress, NamespaceTestCompletions, NamespaceUnlocks}

// KeyedBlob is a stored (userID, key) -> data row
type KeyedBlob struct {
	UserID string          `json:"userId"`
	Key    string          `json:"key"`
	Data   json.RawMessage `json:"data"`
}

// BlobValue is the decoded form of a stored blob.
// Decoded is false when the stored text was not valid JSON; Raw then holds it unchanged.
type BlobValue struct {
	Raw     string
	Value   any
	Decoded bool
}

// DecodeBlob parses stored blob text, falling back to the raw string
func DecodeBlob(raw string) BlobValue {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return BlobValue{Raw: raw}
	}
	return BlobValue{Raw: raw, Value: v, Decoded: true}
}

// EncodeBlob serializes a value for storage. json.RawMessage is stored as-is when valid.
func EncodeBlob(data any) (string, error) {
	if raw, ok := data.(json.RawMessage); ok {
		if len(raw) == 0 {
			return "null", nil
		}
		if !json.Valid(raw) {
			return "", fmt.Errorf("invalid JSON payload")
		}
		return string(raw), nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal blob: %w", err)
	}
	return string(encoded), nil
}

// MarshalJSON emits the decoded value, or the raw stored string when decoding failed
func (b BlobValue) MarshalJSON() ([]byte, error) {
	if b.Decoded {
		return json.Marshal(b.Value)
	}
	return json.Marshal(b.Raw)
}
