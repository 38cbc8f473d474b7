package settings

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9]+(\.[a-z0-9_]+)*$`)

// Repository defines persistence for storefront settings.
type Repository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	Delete(ctx context.Context, key string) (bool, error)
}

// GormRepository persists settings via gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns every setting ordered by key.
func (r *GormRepository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Upsert inserts the setting or overwrites its value.
func (r *GormRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}

// Delete removes the setting and reports whether it existed.
func (r *GormRepository) Delete(ctx context.Context, key string) (bool, error) {
	result := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Service exposes storefront configuration management.
type Service interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo Repository
}

// NewService builds the settings service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// GetAll returns the settings as a flat key/value map.
func (s *service) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Set stores one setting, creating or overwriting as needed. Keys are
// dot-delimited lowercase identifiers like store.banner_text.
func (s *service) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if !settingKeyPattern.MatchString(key) {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key must be a dot-delimited identifier").
			WithDetails(map[string]any{"key": key})
	}
	setting := &models.Setting{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save setting")
	}
	return nil
}

// Delete removes one setting by key.
func (s *service) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	removed, err := s.repo.Delete(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete setting")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
	}
	return nil
}
