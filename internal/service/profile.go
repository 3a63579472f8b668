package service

import (
	"context"
	"fmt"

	"taskboard/internal/models"
	"taskboard/internal/repository"
)

type Profiles struct {
	users    repository.UserStore
	uploader Uploader
}

func NewProfiles(users repository.UserStore, uploader Uploader) *Profiles {
	return &Profiles{users: users, uploader: uploader}
}

// SetPicture uploads payload and points the user's profile picture at it.
func (p *Profiles) SetPicture(ctx context.Context, userID, payload string) (*models.User, error) {
	url, err := p.uploader.Upload(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}
	if err := p.users.UpdateProfile(ctx, userID, models.ProfileUpdate{ProfilePicture: &url}); err != nil {
		return nil, err
	}
	return p.users.FindByID(ctx, userID)
}
