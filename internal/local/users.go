package local

import (
	"context"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// userFromRecord never carries the password hash out of the store
func userFromRecord(r storage.Record) models.User {
	u := models.User{
		ID:           r[storage.ColID],
		Username:     r[storage.ColUsername],
		PasswordHash: r[storage.ColPasswordHash],
		Metadata:     models.DecodeMetadata(r[storage.ColMetadata]),
	}
	return u.Public()
}

// GetUsers lists every user without credentials
func (a *API) GetUsers(ctx context.Context) ([]models.User, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	records, err := a.engine.SelectAll(ctx, storage.Users)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, len(records))
	for i, r := range records {
		users[i] = userFromRecord(r)
	}
	return users, nil
}

// SaveUser stores the user, generating an ID when it has none.
// An empty PasswordHash keeps the stored hash of an existing user.
func (a *API) SaveUser(ctx context.Context, user models.User) (SaveResult, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return SaveResult{}, err
	}
	user.EnsureID()

	hash := user.PasswordHash
	if hash == "" {
		existing, found, err := a.engine.SelectByKey(ctx, storage.Users, storage.Key{user.ID})
		if err != nil {
			return SaveResult{}, err
		}
		if found {
			hash = existing[storage.ColPasswordHash]
		}
	}

	meta, err := models.EncodeMetadata(user.Metadata)
	if err != nil {
		return SaveResult{}, err
	}
	rec := storage.Record{
		storage.ColID:           user.ID,
		storage.ColUsername:     user.Username,
		storage.ColPasswordHash: hash,
		storage.ColMetadata:     meta,
	}
	if err := a.engine.Upsert(ctx, storage.Users, rec); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{OK: true, ID: user.ID}, nil
}

// GetUserByUsername returns the first user (by ID order) with the username, or nil.
// Usernames are not unique.
func (a *API) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	records, err := a.engine.SelectAll(ctx, storage.Users)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r[storage.ColUsername] == username {
			u := userFromRecord(r)
			return &u, nil
		}
	}
	return nil, nil
}

// GetUserByID returns the user with id, or nil
func (a *API) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	r, found, err := a.engine.SelectByKey(ctx, storage.Users, storage.Key{id})
	if err != nil || !found {
		return nil, err
	}
	u := userFromRecord(r)
	return &u, nil
}

// PasswordHash returns the stored hash for a user ID. Only credential checks should call it.
func (a *API) PasswordHash(ctx context.Context, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	if err := a.ensureOpen(ctx); err != nil {
		return "", false, err
	}
	r, found, err := a.engine.SelectByKey(ctx, storage.Users, storage.Key{id})
	if err != nil || !found {
		return "", false, err
	}
	return r[storage.ColPasswordHash], true, nil
}

// SetCurrentUserID points the current-user setting at id. An empty id clears it.
func (a *API) SetCurrentUserID(ctx context.Context, id string) (Result, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return Result{}, err
	}
	rec := storage.Record{storage.ColKey: models.CurrentUserSetting, storage.ColValue: id}
	if err := a.engine.Upsert(ctx, storage.Settings, rec); err != nil {
		return Result{}, err
	}
	return ok(), nil
}

// GetCurrentUserID returns the current user's ID, or nil when unset or empty
func (a *API) GetCurrentUserID(ctx context.Context) (*string, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	r, found, err := a.engine.SelectByKey(ctx, storage.Settings, storage.Key{models.CurrentUserSetting})
	if err != nil || !found {
		return nil, err
	}
	id := r[storage.ColValue]
	if id == "" {
		return nil, nil
	}
	return &id, nil
}

// GetCurrentUser resolves the current-user setting, or returns nil
func (a *API) GetCurrentUser(ctx context.Context) (*models.User, error) {
	id, err := a.GetCurrentUserID(ctx)
	if err != nil || id == nil {
		return nil, err
	}
	return a.GetUserByID(ctx, *id)
}
