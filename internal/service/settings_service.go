package service

import (
	"context"
	"fmt"

	"car-showroom/internal/domain"
	"car-showroom/internal/repository"
	"car-showroom/internal/session"
)

// ThemeSetter receives the theme after every settings write.
type ThemeSetter interface {
	SetTheme(session.Theme)
}

// SettingsService reads and writes the site settings
type SettingsService interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

type settingsService struct {
	repo  repository.SettingsRepository
	theme ThemeSetter
}

func NewSettingsService(repo repository.SettingsRepository, theme ThemeSetter) SettingsService {
	return &settingsService{repo: repo, theme: theme}
}

func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// Update stores the settings and publishes the new theme.
func (s *settingsService) Update(ctx context.Context, settings *domain.Settings) error {
	if err := s.repo.Update(ctx, settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if s.theme != nil {
		s.theme.SetTheme(session.ThemeFromSettings(settings))
	}
	return nil
}
