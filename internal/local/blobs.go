package local

import (
	"context"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// GetBlobs returns key -> value for one user in a namespace.
// An empty userID returns an empty map without touching storage.
// Stored data that is not valid JSON comes back raw with Decoded false.
func (a *API) GetBlobs(ctx context.Context, ns models.Namespace, userID string) (map[string]models.BlobValue, error) {
	out := map[string]models.BlobValue{}
	if userID == "" {
		return out, nil
	}
	c, err := storage.NamespaceCollection(ns)
	if err != nil {
		return nil, err
	}
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	records, err := a.engine.SelectWhere(ctx, c, storage.Key{userID})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		v := models.DecodeBlob(r[storage.ColData])
		if !v.Decoded {
			a.logger.Warn("stored blob is not valid JSON, returning raw value",
				"namespace", string(ns), "user_id", userID, "key", r[storage.ColKey])
		}
		out[r[storage.ColKey]] = v
	}
	return out, nil
}

// SaveBlob upserts the JSON encoding of data under (userID, key).
// A missing userID or key is rejected without writing.
func (a *API) SaveBlob(ctx context.Context, ns models.Namespace, userID, key string, data any) (Result, error) {
	if userID == "" || key == "" {
		return missing(), nil
	}
	c, err := storage.NamespaceCollection(ns)
	if err != nil {
		return Result{}, err
	}
	encoded, err := models.EncodeBlob(data)
	if err != nil {
		return Result{}, err
	}
	if err := a.ensureOpen(ctx); err != nil {
		return Result{}, err
	}
	rec := storage.Record{storage.ColUserID: userID, storage.ColKey: key, storage.ColData: encoded}
	if err := a.engine.Upsert(ctx, c, rec); err != nil {
		return Result{}, err
	}
	return ok(), nil
}

// ClearBlobs deletes every row for userID in a namespace
func (a *API) ClearBlobs(ctx context.Context, ns models.Namespace, userID string) (Result, error) {
	if userID == "" {
		return missing(), nil
	}
	c, err := storage.NamespaceCollection(ns)
	if err != nil {
		return Result{}, err
	}
	if err := a.ensureOpen(ctx); err != nil {
		return Result{}, err
	}
	n, err := a.engine.DeleteWhere(ctx, c, storage.Key{userID})
	if err != nil {
		return Result{}, err
	}
	a.logger.Debug("cleared user rows", "namespace", string(ns), "user_id", userID, "rows", n)
	return ok(), nil
}

// GetUserProgress returns a user's study progress entries
func (a *API) GetUserProgress(ctx context.Context, userID string) (map[string]models.BlobValue, error) {
	return a.GetBlobs(ctx, models.NamespaceProgress, userID)
}

// GetTestCompletions returns a user's recorded test results
func (a *API) GetTestCompletions(ctx context.Context, userID string) (map[string]models.BlobValue, error) {
	return a.GetBlobs(ctx, models.NamespaceTestCompletions, userID)
}

// GetUserUnlocks returns a user's unlocked content
func (a *API) GetUserUnlocks(ctx context.Context, userID string) (map[string]models.BlobValue, error) {
	return a.GetBlobs(ctx, models.NamespaceUnlocks, userID)
}

// SaveProgress stores one progress entry for a user
func (a *API) SaveProgress(ctx context.Context, userID, key string, data any) (Result, error) {
	return a.SaveBlob(ctx, models.NamespaceProgress, userID, key, data)
}

// SaveTestCompletion records one test result for a user
func (a *API) SaveTestCompletion(ctx context.Context, userID, key string, data any) (Result, error) {
	return a.SaveBlob(ctx, models.NamespaceTestCompletions, userID, key, data)
}

// SaveUserUnlock stores one unlock for a user
func (a *API) SaveUserUnlock(ctx context.Context, userID, key string, data any) (Result, error) {
	return a.SaveBlob(ctx, models.NamespaceUnlocks, userID, key, data)
}

// ClearUserProgress deletes all of a user's progress
func (a *API) ClearUserProgress(ctx context.Context, userID string) (Result, error) {
	return a.ClearBlobs(ctx, models.NamespaceProgress, userID)
}

// ClearTestCompletions deletes all of a user's test results
func (a *API) ClearTestCompletions(ctx context.Context, userID string) (Result, error) {
	return a.ClearBlobs(ctx, models.NamespaceTestCompletions, userID)
}

// ClearUserUnlocks deletes all of a user's unlocks
func (a *API) ClearUserUnlocks(ctx context.Context, userID string) (Result, error) {
	return a.ClearBlobs(ctx, models.NamespaceUnlocks, userID)
}
