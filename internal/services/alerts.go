package services

import (
	"context"
	"fmt"
	"time"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

type AlertService struct {
	store ports.AlertRepository
	now   func() time.Time
}

func NewAlertService(store ports.AlertRepository) *AlertService {
	return &AlertService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the newest alerts. A nil resolved lists both states.
func (s *AlertService) List(ctx context.Context, resolved *bool) ([]*domain.Alert, error) {
	out, err := s.store.ListAlerts(ctx, ports.AlertFilter{Resolved: resolved}, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

func (s *AlertService) Resolve(ctx context.Context, id string) error {
	if err := s.store.ResolveAlert(ctx, id, s.now()); err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	return nil
}
