package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domainmap.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetDomainMap(t *testing.T) {
	full := `{
		// certification titles
		"certNames": {"220-1101": "A+ Core 1"},
		"domainMaps": {"220-1101": {"1.0": "Mobile Devices"}},
		"subdomainMaps": {"220-1101": {"1.0": {"1.1": "Laptop hardware"}}},
	}`

	tests := []struct {
		name string
		path string
		want models.DomainMap
	}{
		{
			name: "jsonc file",
			path: writeFile(t, full),
			want: models.DomainMap{
				CertNames:     map[string]string{"220-1101": "A+ Core 1"},
				DomainMaps:    map[string]map[string]string{"220-1101": {"1.0": "Mobile Devices"}},
				SubdomainMaps: map[string]map[string]map[string]string{"220-1101": {"1.0": {"1.1": "Laptop hardware"}}},
			},
		},
		{
			name: "partial file gets empty sections",
			path: writeFile(t, `{"certNames": {"x": "X"}}`),
			want: models.DomainMap{
				CertNames:     map[string]string{"x": "X"},
				DomainMaps:    map[string]map[string]string{},
				SubdomainMaps: map[string]map[string]map[string]string{},
			},
		},
		{name: "no path configured", path: "", want: models.EmptyDomainMap()},
		{name: "missing file", path: filepath.Join(t.TempDir(), "absent.json"), want: models.EmptyDomainMap()},
		{name: "unparsable file", path: writeFile(t, "{{{"), want: models.EmptyDomainMap()},
		{name: "wrong shape", path: writeFile(t, `{"certNames": [1,2]}`), want: models.EmptyDomainMap()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, eng := newTestAPI(t, WithDomainMapPath(tt.path))
			got, err := api.GetDomainMap(context.Background())
			if err != nil {
				t.Fatalf("GetDomainMap() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GetDomainMap() mismatch (-want +got):\n%s", diff)
			}
			if eng.opens.Load() != 0 {
				t.Error("domain map reads must not open the store")
			}
		})
	}
}
