package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/models"
	"github.com/Akram409/leafora-web-server/internal/store"
)

// DefaultUserPassword is assigned when an admin creates a user without one,
// matching the behavior of the original backend.
const DefaultUserPassword = "TempPassword123!"

var (
	// ErrAdminRequired is returned when the caller's record is not an admin.
	ErrAdminRequired = errors.New("admin access required")
	// ErrInvalidAction is returned for unrecognized subscription actions.
	ErrInvalidAction = errors.New("invalid subscription action")
)

// ValidationError carries the full list of field-rule violations. The write
// is aborted and every message is surfaced to the caller.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// UserService implements the administrative and self-service operations over
// user records. Every operation is a single read-modify-write against the
// store; concurrent writers are last-writer-wins.
type UserService struct {
	store   store.UserStore
	gateway identity.Gateway
}

func NewUserService(userStore store.UserStore, gateway identity.Gateway) *UserService {
	return &UserService{store: userStore, gateway: gateway}
}

// AdminLogin verifies the bearer token, requires the admin role on the
// caller's record and marks the admin online.
func (s *UserService) AdminLogin(ctx context.Context, token string) (*models.UserRecord, error) {
	uid, err := s.gateway.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if record.Role != models.RoleAdmin {
		return nil, ErrAdminRequired
	}
	record.SetPresence(true)
	if err := s.store.Replace(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Logout marks the caller offline and records lastActive.
func (s *UserService) Logout(ctx context.Context, uid string) error {
	return s.SetPresence(ctx, uid, false)
}

// SetPresence flips the online flag on the stored record.
func (s *UserService) SetPresence(ctx context.Context, uid string, online bool) error {
	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return err
	}
	record.SetPresence(online)
	return s.store.Replace(ctx, record)
}

// ListParams narrows and pages the user listing.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Role   string
	Status string
	Plan   string
}

// UserPage is one page of the user listing plus its pagination envelope.
type UserPage struct {
	Users       []*models.UserRecord `json:"users"`
	TotalUsers  int                  `json:"totalUsers"`
	CurrentPage int                  `json:"currentPage"`
	TotalPages  int                  `json:"totalPages"`
}

// ListUsers filters by role/status/plan at the store, then applies the search
// and pagination in memory the way the original backend did.
func (s *UserService) ListUsers(ctx context.Context, params ListParams) (*UserPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	records, err := s.store.List(ctx, store.ListFilter{
		Role:   params.Role,
		Status: params.Status,
		Plan:   params.Plan,
	})
	if err != nil {
		return nil, err
	}

	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		filtered := records[:0]
		for _, r := range records {
			if strings.Contains(strings.ToLower(r.UserName), needle) ||
				strings.Contains(strings.ToLower(r.UserEmail), needle) ||
				strings.Contains(r.UserPhone, params.Search) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	total := len(records)
	totalPages := (total + params.Limit - 1) / params.Limit

	start := (params.Page - 1) * params.Limit
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	page := records[start:end]
	if page == nil {
		page = []*models.UserRecord{}
	}
	return &UserPage{
		Users:       page,
		TotalUsers:  total,
		CurrentPage: params.Page,
		TotalPages:  totalPages,
	}, nil
}

// GetUser fetches one record by uid.
func (s *UserService) GetUser(ctx context.Context, uid string) (*models.UserRecord, error) {
	return s.store.Get(ctx, uid)
}

// CreateUser validates the supplied fields, provisions a gateway account and
// persists the record under the gateway-issued uid.
func (s *UserService) CreateUser(ctx context.Context, fields map[string]any, password string) (*models.UserRecord, error) {
	record := models.NewUserRecord(fields)
	if msgs := record.Validate(); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	if password == "" {
		password = DefaultUserPassword
	}
	uid, err := s.gateway.CreateUser(ctx, identity.NewAccount{
		Email:       record.UserEmail,
		Password:    password,
		DisplayName: record.UserName,
	})
	if err != nil {
		return nil, err
	}

	record.UserID = uid
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateUser merges an unrestricted field mapping into the stored record,
// validates and persists it, and pushes an email/display-name change through
// to the gateway when the email changed.
func (s *UserService) UpdateUser(ctx context.Context, uid string, fields map[string]any) (*models.UserRecord, error) {
	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	previousEmail := record.UserEmail
	record.ApplyUpdate(fields)
	record.UserID = uid // immutable once assigned

	if msgs := record.Validate(); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}
	if err := s.store.Replace(ctx, record); err != nil {
		return nil, err
	}

	if record.UserEmail != previousEmail {
		err := s.gateway.UpdateUser(ctx, uid, identity.AccountUpdate{
			Email:       record.UserEmail,
			DisplayName: record.UserName,
		})
		if err != nil {
			return nil, fmt.Errorf("record updated but gateway email change failed: %w", err)
		}
	}
	return record, nil
}

// DeleteUser removes the gateway account and then the stored record. There is
// no compensation: a failure between the two leaves a split state.
func (s *UserService) DeleteUser(ctx context.Context, uid string) error {
	if _, err := s.store.Get(ctx, uid); err != nil {
		return err
	}
	if err := s.gateway.DeleteUser(ctx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return err
	}
	return s.store.Delete(ctx, uid)
}

// SubscriptionChange is a subscription transition request.
type SubscriptionChange struct {
	Action      string `json:"action"`
	Type        string `json:"type"`
	Duration    string `json:"duration"`
	AutoRenewal bool   `json:"autoRenewal"`
}

// UpdateSubscription applies an activate/cancel/extend transition to the
// record. Activate and extend require a monthly/yearly duration; unknown
// actions are rejected.
func (s *UserService) UpdateSubscription(ctx context.Context, uid string, change SubscriptionChange) (*models.UserRecord, error) {
	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	switch change.Action {
	case "activate":
		if !validDuration(change.Duration) {
			return nil, &ValidationError{Messages: []string{"Duration must be monthly or yearly"}}
		}
		record.ActivateSubscription(change.Type, change.Duration)
		record.AutoRenewal = change.AutoRenewal
	case "cancel":
		record.CancelSubscription()
	case "extend":
		if !validDuration(change.Duration) {
			return nil, &ValidationError{Messages: []string{"Duration must be monthly or yearly"}}
		}
		record.ExtendSubscription(change.Duration)
	default:
		return nil, ErrInvalidAction
	}

	if err := s.store.Replace(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func validDuration(duration string) bool {
	return duration == models.SubscriptionMonthly || duration == models.SubscriptionYearly
}

// GetProfile fetches the caller's own record. A subscription whose end date
// has passed while still marked active is corrected and persisted here; this
// is the write path that resolves lazy expiry.
func (s *UserService) GetProfile(ctx context.Context, uid string) (*models.UserRecord, error) {
	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if record.RefreshSubscriptionStatus() {
		if err := s.store.Replace(ctx, record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// UpdateProfile merges a self-service update, restricted to the profile
// allow-list. Disallowed keys (role, plan, subscription state, ...) are
// dropped before the merge.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, fields map[string]any) (*models.UserRecord, error) {
	allowed := make(map[string]any, len(fields))
	for _, key := range models.ProfileUpdateFields {
		if value, ok := fields[key]; ok {
			allowed[key] = value
		}
	}

	record, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	record.ApplyUpdate(allowed)
	record.UserID = uid
	record.Touch()

	if err := s.store.Replace(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// sortByNewest orders records newest-first by createdAt.
func sortByNewest(records []*models.UserRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
}
