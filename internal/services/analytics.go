package services

import (
	"context"
	"log"
	"time"

	"github.com/Akram409/leafora-web-server/internal/models"
	"github.com/Akram409/leafora-web-server/internal/store"
)

// AnalyticsCacheKey is the cache key for the dashboard snapshot.
const AnalyticsCacheKey = "analytics"

// AnalyticsCacheTTL keeps the dashboard snapshot fresh enough for an admin UI
// without recounting the collection on every request.
const AnalyticsCacheTTL = time.Minute

// RoleBuckets counts users per role.
type RoleBuckets struct {
	User   int `json:"user"`
	Admin  int `json:"admin"`
	Expert int `json:"expert"`
}

// StatusBuckets counts users per account status.
type StatusBuckets struct {
	Verified   int `json:"verified"`
	Unverified int `json:"unverified"`
	Suspended  int `json:"suspended"`
}

// PlanBuckets counts users per plan.
type PlanBuckets struct {
	Basic   int `json:"basic"`
	Premium int `json:"premium"`
	Pro     int `json:"pro"`
}

// SubscriptionBuckets counts users per stored subscription status. The counts
// use the stored field, not the derived activity check, so a lapsed-but-not-
// yet-expired record still counts as active here.
type SubscriptionBuckets struct {
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
}

// AnalyticsReport is the admin dashboard snapshot.
type AnalyticsReport struct {
	TotalUsers        int                  `json:"totalUsers"`
	UsersByRole       RoleBuckets          `json:"usersByRole"`
	UsersByStatus     StatusBuckets        `json:"usersByStatus"`
	UsersByPlan       PlanBuckets          `json:"usersByPlan"`
	SubscriptionStats SubscriptionBuckets  `json:"subscriptionStats"`
	RecentUsers       []*models.UserRecord `json:"recentUsers"`
}

// AnalyticsService aggregates user records into the dashboard report,
// caching the result. Cache may be nil, in which case every call recounts.
type AnalyticsService struct {
	store store.UserStore
	cache *CacheService
}

func NewAnalyticsService(userStore store.UserStore, cache *CacheService) *AnalyticsService {
	return &AnalyticsService{store: userStore, cache: cache}
}

// Report returns the current snapshot, serving from cache when available.
// Cache failures are logged and treated as misses.
func (s *AnalyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	if s.cache != nil {
		var cached AnalyticsReport
		hit, err := s.cache.Get(ctx, AnalyticsCacheKey, &cached)
		if err != nil {
			log.Printf("analytics cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	records, err := s.store.List(ctx, store.ListFilter{})
	if err != nil {
		return nil, err
	}

	report := buildReport(records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, AnalyticsCacheKey, report, AnalyticsCacheTTL); err != nil {
			log.Printf("analytics cache write failed: %v", err)
		}
	}
	return report, nil
}

func buildReport(records []*models.UserRecord) *AnalyticsReport {
	report := &AnalyticsReport{TotalUsers: len(records)}

	for _, r := range records {
		switch r.Role {
		case models.RoleUser:
			report.UsersByRole.User++
		case models.RoleAdmin:
			report.UsersByRole.Admin++
		case models.RoleExpert:
			report.UsersByRole.Expert++
		}
		switch r.Status {
		case models.StatusVerified:
			report.UsersByStatus.Verified++
		case models.StatusUnverified:
			report.UsersByStatus.Unverified++
		case models.StatusSuspended:
			report.UsersByStatus.Suspended++
		}
		switch r.Plan {
		case models.PlanBasic:
			report.UsersByPlan.Basic++
		case models.PlanPremium:
			report.UsersByPlan.Premium++
		case models.PlanPro:
			report.UsersByPlan.Pro++
		}
		switch r.SubscriptionStatus {
		case models.SubscriptionActive:
			report.SubscriptionStats.Active++
		case models.SubscriptionInactive:
			report.SubscriptionStats.Inactive++
		case models.SubscriptionExpired:
			report.SubscriptionStats.Expired++
		case models.SubscriptionCancelled:
			report.SubscriptionStats.Cancelled++
		}
	}

	recent := make([]*models.UserRecord, len(records))
	copy(recent, records)
	sortByNewest(recent)
	if len(recent) > 5 {
		recent = recent[:5]
	}
	report.RecentUsers = recent

	return report
}
