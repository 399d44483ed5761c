package session

import (
	"context"

	"pantryhub/pkg/apperr"
	"pantryhub/pkg/models"
)

func (s *Session) GetHistoryEntry(id string) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.history {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HistoryEntry{}, apperr.NotFound("history entry", id)
}

// DeleteHistoryEntry removes one archived trip. Entries are otherwise
// immutable.
func (s *Session) DeleteHistoryEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, e := range s.history {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperr.NotFound("history entry", id)
	}
	s.history = append(s.history[:idx], s.history[idx+1:]...)

	snapshot := make([]models.HistoryEntry, len(s.history))
	copy(snapshot, s.history)
	s.mu.Unlock()

	s.persist("history", func() error { return s.store.SaveHistory(ctx, snapshot) })
	return nil
}

func (s *Session) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	s.persist("history", func() error { return s.store.SaveHistory(ctx, nil) })
}
