package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *model.Document, entry *model.DocumentHistory) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		entry.DocumentoID = doc.ID
		return createHistory(tx, entry)
	})
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "documento", id)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	var docs []model.Document
	query := r.db.WithContext(ctx).Model(&model.Document{})

	if filter.EstagioID != nil {
		query = query.Where("estagio_id = ?", *filter.EstagioID)
	}
	if filter.SupervisorID != nil {
		query = query.Where("supervisor_id = ?", *filter.SupervisorID)
	}
	if filter.CoordenadorID != nil {
		query = query.Where("coordenador_id = ?", *filter.CoordenadorID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	err := query.Order("created_at ASC").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ApplyReview(ctx context.Context, doc *model.Document, review *model.DocumentReview, entry *model.DocumentHistory) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&model.Document{}).
			Where("id = ? AND status IN ?", doc.ID, reviewableStatuses).
			Updates(map[string]interface{}{
				"status":                 doc.Status,
				"prazo_limite":           doc.PrazoLimite,
				"observacoes_supervisor": doc.ObservacoesSupervisor,
				"updated_at":             time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return unchangedDocument(tx, doc.ID)
		}
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
		review.DocumentoID = doc.ID
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		entry.DocumentoID = doc.ID
		return createHistory(tx, entry)
	})
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, doc *model.Document, from model.DocumentStatus, entry *model.DocumentHistory) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&model.Document{}).
			Where("id = ? AND status = ?", doc.ID, from).
			Updates(map[string]interface{}{
				"status":     doc.Status,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return unchangedDocument(tx, doc.ID)
		}
		entry.DocumentoID = doc.ID
		return createHistory(tx, entry)
	})
}

// Supersede locks the previous version so two concurrent resubmissions of the
// same document cannot both create a live version.
func (r *DocumentRepository) Supersede(ctx context.Context, previous, next *model.Document, previousEntry, nextEntry *model.DocumentHistory) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var current model.Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", previous.ID).Error
		if err != nil {
			return notFound(err, "documento", previous.ID)
		}
		if current.Status == model.DocumentSubstituido {
			return apperr.Conflict("documento %s já está com status %s", previous.ID, current.Status)
		}

		if next.ID == uuid.Nil {
			next.ID = uuid.New()
		}
		if err := tx.Omit(clause.Associations).Create(next).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Document{}).
			Where("id = ?", previous.ID).
			Updates(map[string]interface{}{
				"status":     previous.Status,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		previousEntry.DocumentoID = previous.ID
		if err := createHistory(tx, previousEntry); err != nil {
			return err
		}
		nextEntry.DocumentoID = next.ID
		return createHistory(tx, nextEntry)
	})
}

var reviewableStatuses = []model.DocumentStatus{model.DocumentEnviado, model.DocumentCorrigido}

// unchangedDocument explains a conditional update that matched no row: the
// document is gone, or another request moved it first.
func unchangedDocument(tx *gorm.DB, id uuid.UUID) error {
	var current model.Document
	if err := tx.Select("id", "status").First(&current, "id = ?", id).Error; err != nil {
		return notFound(err, "documento", id)
	}
	return apperr.Conflict("documento %s já está com status %s", id, current.Status)
}

func createHistory(tx *gorm.DB, entry *model.DocumentHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return tx.Create(entry).Error
}

func (r *DocumentRepository) ListHistory(ctx context.Context, documentID uuid.UUID) ([]model.DocumentHistory, error) {
	var entries []model.DocumentHistory
	err := r.db.WithContext(ctx).
		Where("documento_id = ?", documentID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *DocumentRepository) ListReviews(ctx context.Context, documentID uuid.UUID) ([]model.DocumentReview, error) {
	var reviews []model.DocumentReview
	err := r.db.WithContext(ctx).
		Where("documento_id = ?", documentID).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

func (r *DocumentRepository) ListWithDeadline(ctx context.Context, from, to time.Time, excluded []model.DocumentStatus) ([]model.Document, error) {
	var docs []model.Document
	query := r.db.WithContext(ctx).
		Where("prazo_limite IS NOT NULL").
		Where("prazo_limite BETWEEN ? AND ?", model.Day(from), model.Day(to))

	if len(excluded) > 0 {
		query = query.Where("status NOT IN ?", excluded)
	}

	err := query.Order("prazo_limite ASC").Find(&docs).Error
	return docs, err
}
