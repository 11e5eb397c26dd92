package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estagio/estagio/pkg/model"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "account", id)
	}
	return &account, nil
}

func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, notFound(err, "account", email)
	}
	return &account, nil
}

func (r *AccountRepository) EmailTaken(ctx context.Context, email string, exclude *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Account{}).Where("LOWER(email) = LOWER(?)", email)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AccountRepository) CreateAccount(ctx context.Context, account *model.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(account).Error
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) StudentByAccount(ctx context.Context, accountID uuid.UUID) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).First(&student, "account_id = ?", accountID).Error; err != nil {
		return nil, notFound(err, "estudante", accountID)
	}
	return &student, nil
}

func (r *ProfileRepository) SupervisorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	if err := r.db.WithContext(ctx).First(&supervisor, "account_id = ?", accountID).Error; err != nil {
		return nil, notFound(err, "supervisor", accountID)
	}
	return &supervisor, nil
}

func (r *ProfileRepository) CoordinatorByAccount(ctx context.Context, accountID uuid.UUID) (*model.Coordinator, error) {
	var coordinator model.Coordinator
	if err := r.db.WithContext(ctx).First(&coordinator, "account_id = ?", accountID).Error; err != nil {
		return nil, notFound(err, "coordenador", accountID)
	}
	return &coordinator, nil
}

func (r *ProfileRepository) GetStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "estudante", id)
	}
	return &student, nil
}

func (r *ProfileRepository) StudentByInternship(ctx context.Context, internshipID uuid.UUID) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).First(&student, "estagio_id = ?", internshipID).Error; err != nil {
		return nil, notFound(err, "estudante do estagio", internshipID)
	}
	return &student, nil
}

func (r *ProfileRepository) MatriculaTaken(ctx context.Context, matricula string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Where("matricula = ?", matricula).Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) CoordinatorForInstitution(ctx context.Context, institutionID uuid.UUID) (*model.Coordinator, error) {
	var coordinator model.Coordinator
	err := r.db.WithContext(ctx).
		Where("instituicao_id = ?", institutionID).
		Order("created_at ASC").
		First(&coordinator).Error
	if err != nil {
		return nil, notFound(err, "coordenador da instituicao", institutionID)
	}
	return &coordinator, nil
}

func (r *ProfileRepository) GetCoordinator(ctx context.Context, id uuid.UUID) (*model.Coordinator, error) {
	var coordinator model.Coordinator
	if err := r.db.WithContext(ctx).First(&coordinator, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "coordenador", id)
	}
	return &coordinator, nil
}

func (r *ProfileRepository) CreateInstitution(ctx context.Context, institution *model.Institution) error {
	if institution.ID == uuid.Nil {
		institution.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(institution).Error
}

func (r *ProfileRepository) GetInstitution(ctx context.Context, id uuid.UUID) (*model.Institution, error) {
	var institution model.Institution
	if err := r.db.WithContext(ctx).First(&institution, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "instituicao", id)
	}
	return &institution, nil
}

func (r *ProfileRepository) CreateStudent(ctx context.Context, account *model.Account, student *model.Student) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if account.ID == uuid.Nil {
			account.ID = uuid.New()
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if student.ID == uuid.Nil {
			student.ID = uuid.New()
		}
		student.AccountID = account.ID
		return tx.Create(student).Error
	})
}

func (r *ProfileRepository) CreateCoordinator(ctx context.Context, account *model.Account, coordinator *model.Coordinator) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if account.ID == uuid.Nil {
			account.ID = uuid.New()
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if coordinator.ID == uuid.Nil {
			coordinator.ID = uuid.New()
		}
		coordinator.AccountID = account.ID
		return tx.Create(coordinator).Error
	})
}
