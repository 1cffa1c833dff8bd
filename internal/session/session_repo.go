package session

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	EmployeeID      string
	From            *time.Time
	To              *time.Time
	Status          string
	Offset          int
	Limit           int
	IncludeEmployee bool
}

//go:generate mockgen -source=session_repo.go -destination=mock/session_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, s *Session) error
	Update(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Session, error)
	FindOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Session, error)
	FindOpenByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Session, error)
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]Session, error)
	ListOpenByDate(ctx context.Context, date time.Time) ([]Session, error)
	List(ctx context.Context, filter ListFilter) ([]Session, int64, error)
	ListCompletedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]Session, error)
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

func (r *repository) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) Update(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

func (r *repository) FindOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("session_date = ?", date.Format("2006-01-02")).
		Where("status IN ?", []string{StatusActive, StatusPaused}).
		First(&s).Error
	return &s, err
}

func (r *repository) FindOpenByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Where("session_date = ?", date.Format("2006-01-02")).
		Where("status IN ?", []string{StatusActive, StatusPaused}).
		First(&s).Error
	return &s, err
}

func (r *repository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("session_date = ?", date.Format("2006-01-02")).
		Order("clock_in ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListOpenByDate(ctx context.Context, date time.Time) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Where("session_date = ?", date.Format("2006-01-02")).
		Where("status IN ?", []string{StatusActive, StatusPaused}).
		Order("clock_in ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Session, int64, error) {
	q := r.db.WithContext(ctx).Model(&Session{})
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.From != nil {
		q = q.Where("session_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		q = q.Where("session_date <= ?", filter.To.Format("2006-01-02"))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.IncludeEmployee {
		q = q.Preload("Employee")
	}

	var rows []Session
	err := q.
		Order("session_date DESC, created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) ListCompletedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusCompleted).
		Where("session_date >= ?", from.Format("2006-01-02")).
		Where("session_date <= ?", to.Format("2006-01-02")).
		Order("session_date ASC").
		Find(&rows).Error
	return rows, err
}
