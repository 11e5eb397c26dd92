package workflow

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/access"
	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
)

// Detail is a document with everything recorded about its version chain.
type Detail struct {
	Document model.Document          `json:"documento"`
	Versions []model.Document        `json:"versoes"`
	History  []model.DocumentHistory `json:"historico"`
	Reviews  []model.DocumentReview  `json:"revisoes"`
}

// Get returns the document with its versions, history and review snapshots.
func (s *Service) Get(ctx context.Context, id *access.Identity, docID uuid.UUID) (*Detail, error) {
	doc, err := s.visibleDocument(ctx, id, docID)
	if err != nil {
		return nil, err
	}
	versions, err := s.versionChain(ctx, doc)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Document: *doc,
		Versions: versions,
		History:  make([]model.DocumentHistory, 0),
		Reviews:  make([]model.DocumentReview, 0),
	}
	for _, version := range versions {
		entries, err := s.store.ListHistory(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		detail.History = append(detail.History, entries...)
		reviews, err := s.store.ListReviews(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		detail.Reviews = append(detail.Reviews, reviews...)
	}
	sort.SliceStable(detail.History, func(i, j int) bool {
		return detail.History[i].CreatedAt.Before(detail.History[j].CreatedAt)
	})
	sort.SliceStable(detail.Reviews, func(i, j int) bool {
		return detail.Reviews[i].CreatedAt.Before(detail.Reviews[j].CreatedAt)
	})
	return detail, nil
}

// History returns the version chain ending at docID, oldest first.
func (s *Service) History(ctx context.Context, id *access.Identity, docID uuid.UUID) ([]model.Document, error) {
	doc, err := s.visibleDocument(ctx, id, docID)
	if err != nil {
		return nil, err
	}
	return s.versionChain(ctx, doc)
}

// File opens the stored upload of a document visible to the caller.
func (s *Service) File(ctx context.Context, id *access.Identity, docID uuid.UUID) (*model.Document, io.ReadCloser, error) {
	doc, err := s.visibleDocument(ctx, id, docID)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.files.Open(ctx, doc.Arquivo)
	if err != nil {
		return nil, nil, err
	}
	return doc, content, nil
}

// versionChain follows parent links from doc. The walk stops at a missing
// parent, a repeated id or a parent whose version is not lower, so the result
// is strictly increasing in versao and ends at doc.
func (s *Service) versionChain(ctx context.Context, doc *model.Document) ([]model.Document, error) {
	chain := []model.Document{*doc}
	seen := map[uuid.UUID]bool{doc.ID: true}
	current := doc
	for current.ParentID != nil && !seen[*current.ParentID] {
		parent, err := s.store.GetDocument(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				break
			}
			return nil, err
		}
		if parent.Versao >= current.Versao {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, *parent)
		current = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (s *Service) visibleDocument(ctx context.Context, id *access.Identity, docID uuid.UUID) (*model.Document, error) {
	if !id.Authenticated() {
		return nil, apperr.Permission("authentication required")
	}
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	allowed := false
	switch id.Role {
	case model.RoleAdmin:
		allowed = true
	case model.RoleStudent:
		student, err := s.guard.Student(ctx, id)
		if err != nil {
			return nil, err
		}
		allowed = student.EstagioID != nil && *student.EstagioID == doc.EstagioID
	case model.RoleSupervisor:
		supervisor, err := s.guard.Supervisor(ctx, id)
		if err != nil {
			return nil, err
		}
		allowed = supervisor.ID == doc.SupervisorID
	case model.RoleCoordinator:
		coordinator, err := s.guard.Coordinator(ctx, id)
		if err != nil {
			return nil, err
		}
		allowed = doc.CoordenadorID != nil && *doc.CoordenadorID == coordinator.ID
	}
	if !allowed {
		return nil, apperr.Permission("sem acesso ao documento %s", doc.ID)
	}
	return doc, nil
}
