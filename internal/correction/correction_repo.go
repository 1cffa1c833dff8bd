package correction

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	EmployeeID      string
	Status          string
	From            *time.Time
	To              *time.Time
	Offset          int
	Limit           int
	IncludeEmployee bool
}

//go:generate mockgen -source=correction_repo.go -destination=mock/correction_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, r *CorrectionRequest) error
	Update(ctx context.Context, r *CorrectionRequest) error
	FindByID(ctx context.Context, id string) (*CorrectionRequest, error)
	FindByIDForUpdate(ctx context.Context, id string) (*CorrectionRequest, error)
	FindPendingByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*CorrectionRequest, error)
	List(ctx context.Context, filter ListFilter) ([]CorrectionRequest, int64, error)
	CreateAuditEntry(ctx context.Context, e *CorrectionAuditEntry) error
	ListAuditEntries(ctx context.Context, requestID string) ([]CorrectionAuditEntry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *CorrectionRequest) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) Update(ctx context.Context, row *CorrectionRequest) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*CorrectionRequest, error) {
	var row CorrectionRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("id = ?", id).
		First(&row).Error
	return &row, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*CorrectionRequest, error) {
	var row CorrectionRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	return &row, err
}

func (r *repository) FindPendingByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*CorrectionRequest, error) {
	var row CorrectionRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("request_date = ?", date.Format("2006-01-02")).
		Where("status = ?", StatusPending).
		First(&row).Error
	return &row, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]CorrectionRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&CorrectionRequest{})
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("request_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		q = q.Where("request_date <= ?", filter.To.Format("2006-01-02"))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.IncludeEmployee {
		q = q.Preload("Employee")
	}

	var rows []CorrectionRequest
	err := q.
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) CreateAuditEntry(ctx context.Context, e *CorrectionAuditEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) ListAuditEntries(ctx context.Context, requestID string) ([]CorrectionAuditEntry, error) {
	var rows []CorrectionAuditEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
