package session

import (
	"context"
	"strings"
	"time"

	"pantryhub/internal/normalize"
	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

// AddCustomItem creates a durable user-defined item. Names are unique
// case-insensitively after trimming: adding "Milk" while "milk " exists
// is a validation failure.
func (s *Session) AddCustomItem(ctx context.Context, name, qty string) (models.CustomItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.CustomItem{}, apperr.Validation("item name is required")
	}

	s.mu.Lock()
	key := normalize.Name(name)
	for _, ci := range s.customItems {
		if normalize.Name(ci.Name) == key {
			s.mu.Unlock()
			return models.CustomItem{}, apperr.Validation("an item named %q already exists", ci.Name)
		}
	}

	item := models.CustomItem{
		ID:        newItemID(),
		Name:      name,
		Quantity:  strings.TrimSpace(qty),
		Timestamp: time.Now().UnixMilli(),
	}
	s.customItems = append(s.customItems, item)

	snapshot := make([]models.CustomItem, len(s.customItems))
	copy(snapshot, s.customItems)
	s.mu.Unlock()

	s.persist("custom items", func() error { return s.store.SaveCustomItems(ctx, snapshot) })
	return item, nil
}

// DeleteCustomItem removes a durable custom item and, if present, its
// trip copy.
func (s *Session) DeleteCustomItem(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, ci := range s.customItems {
		if ci.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperr.NotFound("custom item", id)
	}
	s.customItems = append(s.customItems[:idx], s.customItems[idx+1:]...)

	listTouched := false
	for i := range s.list.CustomItems {
		if s.list.CustomItems[i].ID == id {
			s.list.CustomItems = append(s.list.CustomItems[:i], s.list.CustomItems[i+1:]...)
			listTouched = true
			break
		}
	}

	customSnap := make([]models.CustomItem, len(s.customItems))
	copy(customSnap, s.customItems)
	listSnap := copyList(s.list)
	s.mu.Unlock()

	s.persist("custom items", func() error { return s.store.SaveCustomItems(ctx, customSnap) })
	if listTouched {
		s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, listSnap) })
	}
	return nil
}

// AddCustomItemToList copies a durable custom item into the current trip.
// The trip copy shares the durable item's id so completion can retire
// both. Re-adding merges quantities via the reconciler.
func (s *Session) AddCustomItemToList(ctx context.Context, id string) (models.ShoppingItem, error) {
	s.mu.Lock()
	var source *models.CustomItem
	for i := range s.customItems {
		if s.customItems[i].ID == id {
			source = &s.customItems[i]
			break
		}
	}
	if source == nil {
		s.mu.Unlock()
		return models.ShoppingItem{}, apperr.NotFound("custom item", id)
	}

	item := models.ShoppingItem{
		ID:        source.ID,
		Name:      source.Name,
		Quantity:  source.Quantity,
		IsCustom:  true,
		Timestamp: source.Timestamp,
	}
	s.addToListLocked(item, "", "")

	var added models.ShoppingItem
	for _, it := range s.list.CustomItems {
		if normalize.Name(it.Name) == normalize.Name(source.Name) {
			added = it
			break
		}
	}

	snapshot := copyList(s.list)
	s.mu.Unlock()

	s.persist("shopping list", func() error { return s.store.SaveShoppingList(ctx, snapshot) })
	return added, nil
}
