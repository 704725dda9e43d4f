package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/domeo/domeo-backend/pkg/db/models"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleRepository reads the live handle catalog.
type HandleRepository interface {
	FindHandle(ctx context.Context, id string) (*models.Handle, error)
	FindHandles(ctx context.Context, ids []string) (map[string]models.Handle, error)
	UpsertHandle(ctx context.Context, handle *models.Handle) error
}

// Repository persists catalog handles.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a handle repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindHandle loads an active handle. Missing or inactive handles yield NOT_FOUND.
func (r *Repository) FindHandle(ctx context.Context, id string) (*models.Handle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handle id is required")
	}
	var handle models.Handle
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&handle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "handle not found").WithDetails(map[string]any{"handle_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load handle")
	}
	return &handle, nil
}

// FindHandles loads every requested handle that still exists, active or not,
// keyed by ID. Used to refresh display names on read.
func (r *Repository) FindHandles(ctx context.Context, ids []string) (map[string]models.Handle, error) {
	result := make(map[string]models.Handle, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var handles []models.Handle
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&handles).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load handles")
	}
	for _, h := range handles {
		result[h.ID] = h
	}
	return result, nil
}

// UpsertHandle inserts or updates a handle row.
func (r *Repository) UpsertHandle(ctx context.Context, handle *models.Handle) error {
	if handle == nil || strings.TrimSpace(handle.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "handle id is required")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "sku", "active", "updated_at"}),
		}).
		Create(handle).Error
}
