// ABOUTME: CardFilter selects cards by certification, domain, subdomain and difficulty
// ABOUTME: Filter keys are normalized case-insensitively and ANDed together
package models

import "strings"

// CardFilter holds the recognized filter criteria. Empty fields are not applied.
type CardFilter struct {
	CertID      string
	DomainID    string
	SubdomainID string
	Difficulty  string
}

// ParseCardFilter normalizes a flat parameter map into a CardFilter.
// Unknown keys are ignored.
func ParseCardFilter(params map[string]string) CardFilter {
	var f CardFilter
	for k, v := range params {
		if v == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "cert_id", "cert":
			f.CertID = v
		case "domain_id", "domain":
			f.DomainID = v
		case "subdomain_id", "subdomain":
			f.SubdomainID = v
		case "difficulty":
			f.Difficulty = v
		}
	}
	return f
}

// IsEmpty reports whether no criteria are set
func (f CardFilter) IsEmpty() bool {
	return f == CardFilter{}
}

// Match reports whether the card satisfies every set criterion
func (f CardFilter) Match(c *Card) bool {
	if f.CertID != "" && !containsString(c.CertIDs(), f.CertID) {
		return false
	}
	if f.DomainID != "" {
		if v, ok := c.MetaString(MetaDomainID); !ok || v != f.DomainID {
			return false
		}
	}
	if f.SubdomainID != "" {
		if v, ok := c.MetaString(MetaSubdomainID); !ok || v != f.SubdomainID {
			return false
		}
	}
	if f.Difficulty != "" {
		v, ok := c.MetaString(MetaDifficulty)
		if !ok || !strings.EqualFold(v, f.Difficulty) {
			return false
		}
	}
	return true
}

// containsString checks if a slice contains a specific string
func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
