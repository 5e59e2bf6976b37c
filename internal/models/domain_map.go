// ABOUTME: DomainMap describes the certification/domain/subdomain taxonomy
// ABOUTME: Read-only reference data maintained outside the store
package models

// DomainMap is the labeling taxonomy for cards
type DomainMap struct {
	CertNames     map[string]string                       `json:"certNames"`
	DomainMaps    map[string]map[string]string            `json:"domainMaps"`
	SubdomainMaps map[string]map[string]map[string]string `json:"subdomainMaps"`
}

// EmptyDomainMap returns a well-shaped map with no entries
func EmptyDomainMap() DomainMap {
	return DomainMap{
		CertNames:     map[string]string{},
		DomainMaps:    map[string]map[string]string{},
		SubdomainMaps: map[string]map[string]map[string]string{},
	}
}

// Normalize replaces nil sections with empty maps
func (d *DomainMap) Normalize() {
	if d.CertNames == nil {
		d.CertNames = map[string]string{}
	}
	if d.DomainMaps == nil {
		d.DomainMaps = map[string]map[string]string{}
	}
	if d.SubdomainMaps == nil {
		d.SubdomainMaps = map[string]map[string]map[string]string{}
	}
}
