package service

import (
	"context"
	"time"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
)

// ProfileService handles profile reads and owner updates.
type ProfileService struct {
	profiles store.ProfileRepository
	logger   *logger.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profiles store.ProfileRepository, log *logger.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: log}
}

// Get returns one profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*model.Identity, error) {
	return s.profiles.Get(ctx, id)
}

// Update applies the owner's profile edits. Empty fields are left alone;
// role, tier and email are not editable here.
func (s *ProfileService) Update(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.Identity, error) {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		profile.Name = req.Name
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	if req.Location != "" {
		profile.Location = req.Location
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}
	if req.LinkedInURL != "" {
		profile.LinkedInURL = req.LinkedInURL
	}
	if req.TwitterURL != "" {
		profile.TwitterURL = req.TwitterURL
	}
	if req.WebsiteURL != "" {
		profile.WebsiteURL = req.WebsiteURL
	}
	if req.VentureName != "" {
		profile.VentureName = req.VentureName
	}
	if req.VentureStage != "" {
		profile.VentureStage = req.VentureStage
	}
	if req.InvestmentFocus != "" {
		profile.InvestmentFocus = req.InvestmentFocus
	}
	if req.Expertise != "" {
		profile.Expertise = req.Expertise
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = req.HourlyRate
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Browse lists the network, excluding the caller, optionally filtered by
// role.
func (s *ProfileService) Browse(ctx context.Context, callerID string, role model.Role, limit, offset int) (*model.ListProfilesResponse, error) {
	profiles, total, err := s.profiles.List(ctx, store.ListProfilesFilter{
		Role:      role,
		ExcludeID: callerID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}
	return &model.ListProfilesResponse{
		Profiles: profiles,
		Total:    total,
		HasMore:  offset+len(profiles) < total,
	}, nil
}
