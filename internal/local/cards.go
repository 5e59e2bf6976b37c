package local

import (
	"context"
	"fmt"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

func cardFromRecord(r storage.Record) models.Card {
	return models.Card{
		ID:       r[storage.ColID],
		Title:    r[storage.ColTitle],
		Content:  r[storage.ColContent],
		Metadata: models.DecodeMetadata(r[storage.ColMetadata]),
	}
}

func cardToRecord(c models.Card) (storage.Record, error) {
	meta, err := models.EncodeMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}
	return storage.Record{
		storage.ColID:       c.ID,
		storage.ColTitle:    c.Title,
		storage.ColContent:  c.Content,
		storage.ColMetadata: meta,
	}, nil
}

// GetCards returns every card matching filter; an empty filter returns all cards
func (a *API) GetCards(ctx context.Context, filter map[string]string) ([]models.Card, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	records, err := a.engine.SelectAll(ctx, storage.Cards)
	if err != nil {
		return nil, err
	}

	f := models.ParseCardFilter(filter)
	cards := make([]models.Card, 0, len(records))
	for _, r := range records {
		c := cardFromRecord(r)
		if f.IsEmpty() || f.Match(&c) {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// GetCard returns the card with id, or nil
func (a *API) GetCard(ctx context.Context, id string) (*models.Card, error) {
	if id == "" {
		return nil, nil
	}
	if err := a.ensureOpen(ctx); err != nil {
		return nil, err
	}
	r, found, err := a.engine.SelectByKey(ctx, storage.Cards, storage.Key{id})
	if err != nil || !found {
		return nil, err
	}
	c := cardFromRecord(r)
	return &c, nil
}

// SaveCard stores the card, generating an ID when it has none. An existing card is fully replaced.
func (a *API) SaveCard(ctx context.Context, card models.Card) (SaveResult, error) {
	if err := a.ensureOpen(ctx); err != nil {
		return SaveResult{}, err
	}
	card.EnsureID()
	rec, err := cardToRecord(card)
	if err != nil {
		return SaveResult{}, err
	}
	if err := a.engine.Upsert(ctx, storage.Cards, rec); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{OK: true, ID: card.ID}, nil
}

// DeleteCard removes a card. Deleting an absent card succeeds.
func (a *API) DeleteCard(ctx context.Context, id string) (Result, error) {
	if id == "" {
		return missing(), nil
	}
	if err := a.ensureOpen(ctx); err != nil {
		return Result{}, err
	}
	if err := a.engine.DeleteByKey(ctx, storage.Cards, storage.Key{id}); err != nil {
		return Result{}, err
	}
	return ok(), nil
}

// ImportCards saves each card in order and stops at the first failure.
// Count reports how many were saved before it.
func (a *API) ImportCards(ctx context.Context, cards []models.Card) (ImportResult, error) {
	var res ImportResult
	for i, c := range cards {
		if _, err := a.SaveCard(ctx, c); err != nil {
			return res, fmt.Errorf("card %d: %w", i, err)
		}
		res.Count++
	}
	res.OK = true
	a.logger.Info("cards imported", "count", res.Count)
	return res, nil
}
