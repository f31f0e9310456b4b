package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrNotFound is returned when no analysis matches the requested id.
var ErrNotFound = errors.New("analysis not found")

// AnalysisRecord is one stored analysis. Body holds the JSON response that was
// returned to the client, or the error for failed analyses.
type AnalysisRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Body      string    `gorm:"type:json" json:"body"`
	Status    string    `gorm:"type:varchar(10);check:status IN ('success','fail')" json:"status"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;index" json:"created_at"`
}

func (AnalysisRecord) TableName() string {
	return "analyses"
}

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{
		db: db,
	}
}

// AutoMigrate creates or updates the analyses table.
func (r *AnalysisRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&AnalysisRecord{})
}

func (r *AnalysisRepository) Create(ctx context.Context, record *AnalysisRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *AnalysisRepository) FindByID(ctx context.Context, id string) (*AnalysisRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var record AnalysisRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type Pagination struct {
	Page     int `json:"page" query:"page"`
	PageSize int `json:"page_size" query:"page_size"`
}

// Normalize clamps the page to >= 1 and the page size to [1, MaxPageSize],
// using DefaultPageSize when unset.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// FindAll lists analyses newest first.
func (r *AnalysisRepository) FindAll(ctx context.Context, pagination Pagination) ([]AnalysisRecord, error) {
	pagination = pagination.Normalize()

	var records []AnalysisRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PageSize).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&AnalysisRecord{}, "id = ?", id).Error
}
