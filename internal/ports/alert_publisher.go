package ports

import (
	"context"
	"sitetrack-service/internal/domain"
)

// Contract for forwarding alerts to systems outside this service.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a *domain.Alert) error
}
