package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

type InternshipRepository struct {
	db *gorm.DB
}

func NewInternshipRepository(db *gorm.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

func (r *InternshipRepository) CreateInternship(ctx context.Context, internship *model.Internship) error {
	if internship.ID == uuid.Nil {
		internship.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Empresa", "Supervisor").Create(internship).Error
}

func (r *InternshipRepository) GetInternship(ctx context.Context, id uuid.UUID) (*model.Internship, error) {
	var internship model.Internship
	if err := r.db.WithContext(ctx).First(&internship, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "estagio", id)
	}
	return &internship, nil
}

func (r *InternshipRepository) ListInternships(ctx context.Context, filter store.InternshipFilter) ([]model.Internship, error) {
	var internships []model.Internship
	query := r.db.WithContext(ctx).Model(&model.Internship{})

	if filter.SupervisorID != nil {
		query = query.Where("supervisor_id = ?", *filter.SupervisorID)
	}
	if filter.EmpresaID != nil {
		query = query.Where("empresa_id = ?", *filter.EmpresaID)
	}
	if filter.StatusVaga != "" {
		query = query.Where("status_vaga = ?", filter.StatusVaga)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	err := query.Order("data_inicio ASC").Find(&internships).Error
	return internships, err
}

func (r *InternshipRepository) UpdateInternship(ctx context.Context, internship *model.Internship) error {
	return r.db.WithContext(ctx).Omit("Empresa", "Supervisor").Save(internship).Error
}

func (r *InternshipRepository) AssignStudent(ctx context.Context, internship *model.Internship, studentID uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit("Empresa", "Supervisor").Save(internship).Error; err != nil {
			return err
		}
		result := tx.Model(&model.Student{}).
			Where("id = ?", studentID).
			Updates(map[string]interface{}{
				"estagio_id": internship.ID,
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "estudante", studentID)
		}
		return nil
	})
}

type HoursRepository struct {
	db *gorm.DB
}

func NewHoursRepository(db *gorm.DB) *HoursRepository {
	return &HoursRepository{db: db}
}

func (r *HoursRepository) CreateHoursLog(ctx context.Context, entry *model.HoursLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *HoursRepository) ListHoursLogs(ctx context.Context, studentID uuid.UUID) ([]model.HoursLog, error) {
	var entries []model.HoursLog
	err := r.db.WithContext(ctx).
		Where("estudante_id = ?", studentID).
		Order("data ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *HoursRepository) SumHours(ctx context.Context, studentID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&model.HoursLog{}).
		Where("estudante_id = ?", studentID).
		Select("COALESCE(SUM(quantidade), 0)").
		Scan(&total).Error
	return total, err
}
