package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// MaxProfileFieldLength caps each profile field.
const MaxProfileFieldLength = 500

// ProfileRepository is the subset of *repository.ProfileStore the service uses.
type ProfileRepository interface {
	Load() model.Profile
	Update(ctx context.Context, patch model.Profile) model.Profile
}

var _ ProfileRepository = (*repository.ProfileStore)(nil)

// ProfileService reads and edits the single profile record.
type ProfileService struct {
	repo   ProfileRepository
	logger *slog.Logger
}

func NewProfileService(repo ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// Get returns the current profile.
func (s *ProfileService) Get() model.Profile {
	return s.repo.Load()
}

// Update merges patch into the profile. Empty fields keep their value.
func (s *ProfileService) Update(ctx context.Context, patch model.Profile) (model.Profile, error) {
	fields := []struct{ name, value string }{
		{"name", patch.Name},
		{"work", patch.Work},
		{"photo", patch.Photo},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > MaxProfileFieldLength {
			return model.Profile{}, apperror.ValidationFailed(f.name,
				fmt.Sprintf("%s must be %d characters or less", f.name, MaxProfileFieldLength))
		}
	}

	p := s.repo.Update(ctx, patch)
	s.logger.Info("profile updated", slog.String("name", p.Name))
	return p, nil
}
