package local

import (
	"context"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// Export is a full dump of the store. Password hashes are not included.
type Export struct {
	Cards         []models.Card                           `json:"cards"`
	Users         []models.User                           `json:"users"`
	CurrentUserID *string                                 `json:"currentUserId"`
	Blobs         map[models.Namespace][]models.KeyedBlob `json:"blobs"`
}

// Export reads every collection
func (a *API) Export(ctx context.Context) (*Export, error) {
	cards, err := a.GetCards(ctx, nil)
	if err != nil {
		return nil, err
	}
	users, err := a.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	current, err := a.GetCurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	out := &Export{
		Cards:         cards,
		Users:         users,
		CurrentUserID: current,
		Blobs:         make(map[models.Namespace][]models.KeyedBlob, len(models.Namespaces)),
	}
	for _, ns := range models.Namespaces {
		c, err := storage.NamespaceCollection(ns)
		if err != nil {
			return nil, err
		}
		records, err := a.engine.SelectAll(ctx, c)
		if err != nil {
			return nil, err
		}
		blobs := make([]models.KeyedBlob, 0, len(records))
		for _, r := range records {
			v := models.DecodeBlob(r[storage.ColData])
			data, err := v.MarshalJSON()
			if err != nil {
				return nil, err
			}
			blobs = append(blobs, models.KeyedBlob{UserID: r[storage.ColUserID], Key: r[storage.ColKey], Data: data})
		}
		out.Blobs[ns] = blobs
	}
	return out, nil
}
