package user

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redmonkez12/contacts-api/internal/storage"
)

// Uploader stores a file and returns the URL it is served from
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// AvatarStore persists avatar URLs
type AvatarStore interface {
	UpdateAvatar(ctx context.Context, email, url string) (*User, error)
}

// Service handles account operations beyond authentication
type Service struct {
	store    AvatarStore
	uploader Uploader
	now      func() time.Time
}

func NewService(store AvatarStore, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader, now: time.Now}
}

// UpdateAvatar uploads the image under the user's avatar key and records its URL.
// The key is stable per user, so the URL carries a version to defeat caches.
func (s *Service) UpdateAvatar(ctx context.Context, u *User, body io.Reader, size int64, contentType string) (*User, error) {
	url, err := s.uploader.Upload(ctx, storage.AvatarKey(u.Username), body, size, contentType)
	if err != nil {
		return nil, err
	}

	versioned := fmt.Sprintf("%s?v=%d", url, s.now().Unix())
	return s.store.UpdateAvatar(ctx, u.Email, versioned)
}
