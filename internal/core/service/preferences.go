package service

import (
	"context"
	"fmt"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

type PreferenceService struct {
	prefs port.PreferenceRepository
}

func NewPreferenceService(prefs port.PreferenceRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

// Get returns the saved preferences, or the defaults when none were saved.
func (s *PreferenceService) Get(ctx context.Context, accountID string) (domain.Preferences, error) {
	p, err := s.prefs.GetPreferences(ctx, accountID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	if p == nil {
		return domain.DefaultPreferences(), nil
	}
	return *p, nil
}

// Save merges patch into the current preferences. Empty fields keep their
// current value.
func (s *PreferenceService) Save(ctx context.Context, accountID string, patch domain.Preferences) (domain.Preferences, error) {
	current, err := s.Get(ctx, accountID)
	if err != nil {
		return domain.Preferences{}, err
	}

	if patch.Theme != "" {
		if patch.Theme != domain.ThemeLight && patch.Theme != domain.ThemeDark {
			return domain.Preferences{}, ErrInvalidPreference
		}
		current.Theme = patch.Theme
	}
	if patch.Language != "" {
		if !supportedLanguage(patch.Language) {
			return domain.Preferences{}, ErrInvalidPreference
		}
		current.Language = patch.Language
	}

	if err := s.prefs.SavePreferences(ctx, accountID, current); err != nil {
		return domain.Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return current, nil
}

func supportedLanguage(code string) bool {
	for _, l := range domain.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
