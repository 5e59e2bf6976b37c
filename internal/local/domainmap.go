package local

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/tailscale/hujson"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

// GetDomainMap reads the configured reference file. Comments and trailing
// commas are accepted. A missing or unparsable file yields empty maps.
func (a *API) GetDomainMap(_ context.Context) (models.DomainMap, error) {
	if a.domainMapPath == "" {
		return models.EmptyDomainMap(), nil
	}

	data, err := os.ReadFile(a.domainMapPath)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("no domain map file", "path", a.domainMapPath)
		return models.EmptyDomainMap(), nil
	}
	if err != nil {
		a.logger.Warn("domain map unavailable", "path", a.domainMapPath, "error", err)
		return models.EmptyDomainMap(), nil
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		a.logger.Warn("domain map is not valid JSON", "path", a.domainMapPath, "error", err)
		return models.EmptyDomainMap(), nil
	}

	var dm models.DomainMap
	if err := json.Unmarshal(std, &dm); err != nil {
		a.logger.Warn("domain map has unexpected shape", "path", a.domainMapPath, "error", err)
		return models.EmptyDomainMap(), nil
	}
	dm.Normalize()
	return dm, nil
}
