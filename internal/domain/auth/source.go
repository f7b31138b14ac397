package auth

import (
	"context"

	"absensi/internal/domain/access"
)

// Source is the session source of one browser: the token its cookie carried
// and the device it identifies as.
type Source struct {
	service  *Service
	deviceID string
	token    string
}

var _ access.SessionSource = (*Source)(nil)

func (s *Service) SourceFor(deviceID, token string) *Source {
	return &Source{service: s, deviceID: deviceID, token: token}
}

func (s *Source) Current(ctx context.Context) (access.Session, error) {
	return s.service.Authenticate(ctx, s.token)
}

func (s *Source) Subscribe(ctx context.Context) (<-chan access.Session, func()) {
	if s.deviceID == "" {
		return nil, func() {}
	}
	return s.service.hub.Subscribe(s.deviceID)
}
