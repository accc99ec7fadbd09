package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

type StatsStore interface {
	CountDeliveries(ctx context.Context, f ports.DeliveryFilter) (int, error)
	CountAlerts(ctx context.Context, f ports.AlertFilter) (int, error)
}

type DashboardStats struct {
	TotalDeliveries   int `json:"total_deliveries"`
	TodayDeliveries   int `json:"today_deliveries"`
	PendingDeliveries int `json:"pending_deliveries"`
	InProgress        int `json:"in_progress"`
	CompletedToday    int `json:"completed_today"`
	ActiveDrivers     int `json:"active_drivers"`
	ActiveAlerts      int `json:"active_alerts"`
	CriticalAlerts    int `json:"critical_alerts"`
}

type StatsService struct {
	store   StatsStore
	drivers func() int
	now     func() time.Time
}

// NewStatsService takes the live driver count as a func so the registry
// stays owned by the tracker.
func NewStatsService(store StatsStore, activeDrivers func() int) *StatsService {
	return &StatsService{
		store:   store,
		drivers: activeDrivers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard runs the counters concurrently. "Today" starts at 00:00 UTC.
func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	unresolved := false

	var st DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	deliveries := []struct {
		dst *int
		f   ports.DeliveryFilter
	}{
		{&st.TotalDeliveries, ports.DeliveryFilter{}},
		{&st.TodayDeliveries, ports.DeliveryFilter{CreatedSince: today}},
		{&st.PendingDeliveries, ports.DeliveryFilter{Status: domain.DeliveryPending}},
		{&st.InProgress, ports.DeliveryFilter{Status: domain.DeliveryInProgress}},
		{&st.CompletedToday, ports.DeliveryFilter{Status: domain.DeliveryCompleted, EndedSince: today}},
	}
	for _, c := range deliveries {
		g.Go(func() error {
			n, err := s.store.CountDeliveries(gctx, c.f)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}

	alertCounts := []struct {
		dst *int
		f   ports.AlertFilter
	}{
		{&st.ActiveAlerts, ports.AlertFilter{Resolved: &unresolved}},
		{&st.CriticalAlerts, ports.AlertFilter{Resolved: &unresolved, Severity: domain.SeverityCritical}},
	}
	for _, c := range alertCounts {
		g.Go(func() error {
			n, err := s.store.CountAlerts(gctx, c.f)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	if s.drivers != nil {
		st.ActiveDrivers = s.drivers()
	}
	return st, nil
}
