// ABOUTME: Card represents a single quiz question with classification metadata
// ABOUTME: Metadata is opaque JSON that must round-trip losslessly through storage
package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Well-known metadata keys used for filtering
const (
	MetaCertID      = "cert_id"
	MetaDomainID    = "domain_id"
	MetaSubdomainID = "subdomain_id"
	MetaDifficulty  = "difficulty"
)

// Card is a flashcard/quiz question
type Card struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// NewID returns a random, collision-resistant identifier
func NewID() string {
	return uuid.New().String()
}

// EnsureID assigns a generated ID if the card has none and returns the ID
func (c *Card) EnsureID() string {
	if c.ID == "" {
		c.ID = NewID()
	}
	return c.ID
}

// CertIDs returns metadata.cert_id normalized to a slice.
// A scalar string becomes a one-element slice; non-string members are skipped.
func (c *Card) CertIDs() []string {
	raw, ok := c.Metadata[MetaCertID]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	default:
		return []string{fmt.Sprint(v)}
	}
}

// MetaString returns a metadata value as a string and whether it was present
func (c *Card) MetaString(key string) (string, bool) {
	raw, ok := c.Metadata[key]
	if !ok || raw == nil {
		return "", false
	}
	if s, ok := raw.(string); ok {
		return s, true
	}
	return fmt.Sprint(raw), true
}

// EncodeMetadata serializes metadata for storage. Nil metadata encodes as {}.
func EncodeMetadata(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

// DecodeMetadata parses stored metadata. Empty or invalid input yields an empty map.
func DecodeMetadata(raw string) map[string]any {
	meta := map[string]any{}
	if raw == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta == nil {
		return map[string]any{}
	}
	return meta
}
