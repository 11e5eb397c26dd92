package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) CreateCompany(ctx context.Context, company *model.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepository) UpdateCompany(ctx context.Context, company *model.Company) error {
	result := r.db.WithContext(ctx).Model(&model.Company{}).
		Where("id = ?", company.ID).
		Updates(map[string]interface{}{
			"cnpj":          company.CNPJ,
			"razao_social":  company.RazaoSocial,
			"nome_fantasia": company.NomeFantasia,
			"rua":           company.Rua,
			"numero":        company.Numero,
			"bairro":        company.Bairro,
			"cidade":        company.Cidade,
			"estado":        company.Estado,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "empresa", company.ID)
	}
	return nil
}

func (r *CompanyRepository) GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "empresa", id)
	}
	return &company, nil
}

func (r *CompanyRepository) ListCompanies(ctx context.Context, filter store.CompanyFilter) ([]model.Company, error) {
	var companies []model.Company
	query := r.db.WithContext(ctx).Model(&model.Company{})

	if filter.Estado != "" {
		query = query.Where("UPPER(estado) = ?", strings.ToUpper(filter.Estado))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("razao_social ILIKE ? OR nome_fantasia ILIKE ? OR cnpj LIKE ?", like, like, like)
	}

	err := query.Order("razao_social ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) CNPJTaken(ctx context.Context, cnpj string, exclude *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Company{}).Where("cnpj = ?", cnpj)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CompanyRepository) CountSupervisorsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Supervisor{}).Where("empresa_id = ?", companyID).Count(&count).Error
	return count, err
}

func (r *CompanyRepository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "empresa", id)
	}
	return nil
}

func (r *CompanyRepository) CompanyStats(ctx context.Context) (*store.CompanyStats, error) {
	stats := &store.CompanyStats{PorEstado: make(map[string]int64)}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Company{}).Count(&stats.TotalEmpresas).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Supervisor{}).Count(&stats.TotalSupervisores).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Supervisor{}).Distinct("empresa_id").Count(&stats.EmpresasComSupervisores).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Estado string
		Total  int64
	}
	err := db.Model(&model.Company{}).
		Select("UPPER(estado) AS estado, COUNT(*) AS total").
		Where("estado <> ''").
		Group("UPPER(estado)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.PorEstado[row.Estado] = row.Total
	}
	return stats, nil
}

type SupervisorRepository struct {
	db *gorm.DB
}

func NewSupervisorRepository(db *gorm.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

func (r *SupervisorRepository) CreateSupervisor(ctx context.Context, account *model.Account, supervisor *model.Supervisor) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if account.ID == uuid.Nil {
			account.ID = uuid.New()
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if supervisor.ID == uuid.Nil {
			supervisor.ID = uuid.New()
		}
		supervisor.AccountID = account.ID
		return tx.Omit("Empresa", "Account").Create(supervisor).Error
	})
}

func (r *SupervisorRepository) UpdateSupervisor(ctx context.Context, supervisor *model.Supervisor) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&model.Supervisor{}).
			Where("id = ?", supervisor.ID).
			Updates(map[string]interface{}{
				"nome":       supervisor.Nome,
				"cargo":      supervisor.Cargo,
				"email":      supervisor.Email,
				"telefone":   supervisor.Telefone,
				"empresa_id": supervisor.EmpresaID,
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "supervisor", supervisor.ID)
		}
		return tx.Model(&model.Account{}).
			Where("id = ?", supervisor.AccountID).
			Updates(map[string]interface{}{
				"email":      supervisor.Email,
				"nome":       supervisor.Nome,
				"updated_at": gorm.Expr("NOW()"),
			}).Error
	})
}

func (r *SupervisorRepository) GetSupervisor(ctx context.Context, id uuid.UUID) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	if err := r.db.WithContext(ctx).Preload("Empresa").First(&supervisor, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "supervisor", id)
	}
	return &supervisor, nil
}

func (r *SupervisorRepository) ListSupervisors(ctx context.Context, filter store.SupervisorFilter) ([]model.Supervisor, error) {
	var supervisors []model.Supervisor
	query := r.db.WithContext(ctx).Preload("Empresa")

	if filter.EmpresaID != nil {
		query = query.Where("empresa_id = ?", *filter.EmpresaID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("nome ILIKE ?", "%"+search+"%")
	}

	err := query.Order("nome ASC").Find(&supervisors).Error
	return supervisors, err
}

func (r *SupervisorRepository) CountInternshipsBySupervisor(ctx context.Context, supervisorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Internship{}).Where("supervisor_id = ?", supervisorID).Count(&count).Error
	return count, err
}

func (r *SupervisorRepository) DeleteSupervisor(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var supervisor model.Supervisor
		if err := tx.First(&supervisor, "id = ?", id).Error; err != nil {
			return notFound(err, "supervisor", id)
		}
		if err := tx.Delete(&model.Supervisor{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Account{}, "id = ?", supervisor.AccountID).Error
	})
}
