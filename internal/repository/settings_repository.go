package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"car-showroom/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

var ErrSettingsNotFound = errors.New("site settings not found")

// settingsRowID is the key of the single settings row seeded by migration.
const settingsRowID = "settings"

// SettingsRepository reads and writes the site-wide settings row
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	query, args, err := psql.Select("primary_color", "logo", "whatsapp", "instagram", "updated_at").
		From("site_settings").
		Where(sq.Eq{"id": settingsRowID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build settings query: %w", err)
	}

	s := &domain.Settings{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.PrimaryColor,
		&s.Logo,
		&s.WhatsApp,
		&s.Instagram,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return s, nil
}

// Update replaces the settings and stamps UpdatedAt
func (r *settingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	settings.UpdatedAt = time.Now().UTC()

	result, err := psql.Update("site_settings").
		SetMap(map[string]interface{}{
			"primary_color": settings.PrimaryColor,
			"logo":          settings.Logo,
			"whatsapp":      settings.WhatsApp,
			"instagram":     settings.Instagram,
			"updated_at":    settings.UpdatedAt,
		}).
		Where(sq.Eq{"id": settingsRowID}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}
