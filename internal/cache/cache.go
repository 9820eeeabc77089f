package cache

import (
	"context"
	"time"

	"safatyundangan/backend/internal/domain"
)

type InvitationCache interface {
	Get(ctx context.Context, key string) (*domain.InvitationResponse, bool, error)
	Set(ctx context.Context, key string, value *domain.InvitationResponse, ttl time.Duration) error
}

type NoopInvitationCache struct{}

func (NoopInvitationCache) Get(_ context.Context, _ string) (*domain.InvitationResponse, bool, error) {
	return nil, false, nil
}

func (NoopInvitationCache) Set(_ context.Context, _ string, _ *domain.InvitationResponse, _ time.Duration) error {
	return nil
}
