package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

func (s *Store) CreateDocument(ctx context.Context, doc *model.Document, entry *model.DocumentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&doc.ID)
	s.stamp(&doc.CreatedAt, &doc.UpdatedAt)
	s.documents.put(doc.ID, *doc)
	if entry != nil {
		entry.DocumentoID = doc.ID
		s.appendHistoryLocked(entry)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents.get(id)
	if !ok {
		return nil, apperr.NotFound("documento", id)
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Document, 0)
	for _, doc := range s.documents.all() {
		if filter.EstagioID != nil && doc.EstagioID != *filter.EstagioID {
			continue
		}
		if filter.SupervisorID != nil && doc.SupervisorID != *filter.SupervisorID {
			continue
		}
		if filter.CoordenadorID != nil && (doc.CoordenadorID == nil || *doc.CoordenadorID != *filter.CoordenadorID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, doc.Status) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) ApplyReview(ctx context.Context, doc *model.Document, review *model.DocumentReview, entry *model.DocumentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents.get(doc.ID)
	if !ok {
		return apperr.NotFound("documento", doc.ID)
	}
	if !current.Status.Reviewable() {
		return staleStatus(doc.ID, current.Status)
	}
	s.stamp(nil, &doc.UpdatedAt)
	s.documents.put(doc.ID, *doc)
	ensureID(&review.ID)
	review.DocumentoID = doc.ID
	s.stamp(&review.CreatedAt, nil)
	s.reviews.put(review.ID, *review)
	entry.DocumentoID = doc.ID
	s.appendHistoryLocked(entry)
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, doc *model.Document, from model.DocumentStatus, entry *model.DocumentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents.get(doc.ID)
	if !ok {
		return apperr.NotFound("documento", doc.ID)
	}
	if current.Status != from {
		return staleStatus(doc.ID, current.Status)
	}
	s.stamp(nil, &doc.UpdatedAt)
	s.documents.put(doc.ID, *doc)
	entry.DocumentoID = doc.ID
	s.appendHistoryLocked(entry)
	return nil
}

func (s *Store) Supersede(ctx context.Context, previous, next *model.Document, previousEntry, nextEntry *model.DocumentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.documents.get(previous.ID)
	if !ok {
		return apperr.NotFound("documento", previous.ID)
	}
	if current.Status == model.DocumentSubstituido {
		return staleStatus(previous.ID, current.Status)
	}
	ensureID(&next.ID)
	s.stamp(&next.CreatedAt, &next.UpdatedAt)
	s.documents.put(next.ID, *next)
	s.stamp(nil, &previous.UpdatedAt)
	s.documents.put(previous.ID, *previous)
	previousEntry.DocumentoID = previous.ID
	s.appendHistoryLocked(previousEntry)
	nextEntry.DocumentoID = next.ID
	s.appendHistoryLocked(nextEntry)
	return nil
}

func staleStatus(id uuid.UUID, status model.DocumentStatus) error {
	return apperr.Conflict("documento %s já está com status %s", id, status)
}

func (s *Store) appendHistoryLocked(entry *model.DocumentHistory) {
	ensureID(&entry.ID)
	s.stamp(&entry.CreatedAt, nil)
	s.history.put(entry.ID, *entry)
}

func (s *Store) ListHistory(ctx context.Context, documentID uuid.UUID) ([]model.DocumentHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DocumentHistory, 0)
	for _, entry := range s.history.all() {
		if entry.DocumentoID == documentID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *Store) ListReviews(ctx context.Context, documentID uuid.UUID) ([]model.DocumentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DocumentReview, 0)
	for _, review := range s.reviews.all() {
		if review.DocumentoID == documentID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (s *Store) ListWithDeadline(ctx context.Context, from, to time.Time, excluded []model.DocumentStatus) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = model.Day(from), model.Day(to)
	out := make([]model.Document, 0)
	for _, doc := range s.documents.all() {
		if doc.PrazoLimite == nil || containsStatus(excluded, doc.Status) {
			continue
		}
		deadline := model.Day(*doc.PrazoLimite)
		if deadline.Before(from) || deadline.After(to) {
			continue
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PrazoLimite.Before(*out[j].PrazoLimite)
	})
	return out, nil
}

func containsStatus(statuses []model.DocumentStatus, status model.DocumentStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
