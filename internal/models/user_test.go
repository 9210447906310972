package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserRecordDefaults(t *testing.T) {
	u := NewUserRecord(nil)

	assert.Equal(t, PlanBasic, u.Plan)
	assert.Equal(t, StatusUnverified, u.Status)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, SubscriptionInactive, u.SubscriptionStatus)
	assert.Equal(t, 0, u.Credits)
	assert.False(t, u.AutoRenewal)
	assert.False(t, u.IsOnline)
	assert.Empty(t, u.SubscriptionType)
	assert.Empty(t, u.SubscriptionEndDate)
	assert.NotNil(t, u.Bookmarks)
	assert.Empty(t, u.Bookmarks)
	assert.NotNil(t, u.MyPlants)
	assert.NotEmpty(t, u.CreatedAt)
	assert.NotEmpty(t, u.UpdatedAt)
}

func TestNewUserRecordAppliesSuppliedFields(t *testing.T) {
	u := NewUserRecord(map[string]any{
		"userName": "Akram",
		"role":     RoleExpert,
		"credits":  float64(12), // decoded JSON numbers arrive as float64
		"isOnline": true,
		"userImage": map[string]any{
			"avatar": "https://res.cloudinary.com/leafora/avatar.png",
		},
		"bogusField": "ignored",
	})

	assert.Equal(t, "Akram", u.UserName)
	assert.Equal(t, RoleExpert, u.Role)
	assert.Equal(t, 12, u.Credits)
	assert.True(t, u.IsOnline)
	assert.Equal(t, "https://res.cloudinary.com/leafora/avatar.png", u.UserImage["avatar"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   []string
	}{
		{
			name: "valid record",
			fields: map[string]any{
				"userName": "Akram",
				"userEmail": "akram@leafora.app",
				"userPhone": "01711223344",
			},
			want: nil,
		},
		{
			name: "bad email and short phone",
			fields: map[string]any{
				"userName":  "Al",
				"userEmail": "bad",
				"userPhone": "123",
			},
			want: []string{
				"Valid email is required",
				"Valid phone number is required",
			},
		},
		{
			name: "short name also fails on its own rule",
			fields: map[string]any{
				"userName":  "A",
				"userEmail": "bad",
				"userPhone": "123",
			},
			want: []string{
				"User name must be at least 2 characters long",
				"Valid email is required",
				"Valid phone number is required",
			},
		},
		{
			name: "bad enums collected independently",
			fields: map[string]any{
				"userName":  "Akram",
				"userEmail": "akram@leafora.app",
				"userPhone": "01711223344",
				"role":      "superuser",
				"plan":      "Pro",
				"status":    "banned",
			},
			want: []string{
				"Invalid role specified",
				"Invalid plan specified",
				"Invalid status specified",
			},
		},
		{
			name: "whitespace does not count toward lengths",
			fields: map[string]any{
				"userName":  "  A  ",
				"userEmail": "akram@leafora.app",
				"userPhone": "  123456789  ",
			},
			want: []string{
				"User name must be at least 2 characters long",
				"Valid phone number is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUserRecord(tt.fields)
			assert.Equal(t, tt.want, u.Validate())
		})
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	u := NewUserRecord(map[string]any{
		"userName":  "Akram",
		"userEmail": "akram@leafora.app",
		"userPhone": "01711223344",
		"gender":    "male",
		"about":     "plant person",
		"credits":   5,
		"bookmarks": []any{"article-1", "article-2"},
		"userImage": map[string]string{"avatar": "https://res.cloudinary.com/leafora/a.png"},
	})
	u.UserID = "uid-123"
	u.LastCreditReset = "2026-01-01T00:00:00Z"
	u.ActivateSubscription(SubscriptionYearly, SubscriptionYearly)

	before := *u
	doc := u.ToDocument()
	got := UserRecordFromDocument("uid-123", doc)

	// updatedAt advances on serialization; everything else must survive.
	got.UpdatedAt = before.UpdatedAt
	assert.Equal(t, &before, got)
}

func TestFromDocumentTakesUIDFromKey(t *testing.T) {
	u := NewUserRecord(map[string]any{"userName": "Akram"})
	u.UserID = "body-uid"

	got := UserRecordFromDocument("key-uid", u.ToDocument())
	assert.Equal(t, "key-uid", got.UserID)
}

func TestFromDocumentLegacyStringBooleans(t *testing.T) {
	doc := NewUserRecord(nil).ToDocument()
	doc["isOnline"] = "true"
	doc["autoRenewal"] = "false"

	got := UserRecordFromDocument("uid", doc)
	assert.True(t, got.IsOnline)
	assert.False(t, got.AutoRenewal)
}

func TestActivateSubscriptionMonthly(t *testing.T) {
	u := NewUserRecord(nil)
	u.ActivateSubscription(SubscriptionMonthly, SubscriptionMonthly)

	assert.Equal(t, SubscriptionActive, u.SubscriptionStatus)
	assert.Equal(t, SubscriptionMonthly, u.SubscriptionType)

	start, err := time.Parse(time.RFC3339, u.SubscriptionStartDate)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, u.SubscriptionEndDate)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now(), start, 5*time.Second)
	assert.WithinDuration(t, start.AddDate(0, 1, 0), end, 5*time.Second)
	assert.True(t, u.SubscriptionIsActive())
}

func TestActivateSubscriptionUnknownDurationIsZeroLength(t *testing.T) {
	u := NewUserRecord(nil)
	u.ActivateSubscription(SubscriptionMonthly, "weekly")

	assert.Equal(t, u.SubscriptionStartDate, u.SubscriptionEndDate)
	assert.False(t, u.SubscriptionIsActive())
}

func TestCancelSubscription(t *testing.T) {
	u := NewUserRecord(nil)
	u.ActivateSubscription(SubscriptionYearly, SubscriptionYearly)
	u.AutoRenewal = true

	u.CancelSubscription()

	assert.Equal(t, SubscriptionCancelled, u.SubscriptionStatus)
	assert.False(t, u.AutoRenewal)
	// End date is still in the future but the derived check must say no.
	assert.False(t, u.SubscriptionIsActive())
}

func TestExtendSubscription(t *testing.T) {
	u := NewUserRecord(nil)
	u.ActivateSubscription(SubscriptionMonthly, SubscriptionMonthly)
	before, err := time.Parse(time.RFC3339, u.SubscriptionEndDate)
	require.NoError(t, err)

	u.ExtendSubscription(SubscriptionYearly)

	after, err := time.Parse(time.RFC3339, u.SubscriptionEndDate)
	require.NoError(t, err)
	assert.Equal(t, before.AddDate(1, 0, 0), after)
}

func TestExtendSubscriptionWithoutEndDateIsNoop(t *testing.T) {
	u := NewUserRecord(nil)
	updatedAt := u.UpdatedAt

	u.ExtendSubscription(SubscriptionYearly)

	assert.Equal(t, SubscriptionInactive, u.SubscriptionStatus)
	assert.Empty(t, u.SubscriptionEndDate)
	assert.Empty(t, u.SubscriptionStartDate)
	assert.Equal(t, updatedAt, u.UpdatedAt)
}

func TestRefreshSubscriptionStatus(t *testing.T) {
	u := NewUserRecord(nil)
	u.ActivateSubscription(SubscriptionMonthly, SubscriptionMonthly)
	assert.False(t, u.RefreshSubscriptionStatus())
	assert.Equal(t, SubscriptionActive, u.SubscriptionStatus)

	// Push the end date into the past: the stored status lags until refreshed.
	u.SubscriptionEndDate = time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	assert.False(t, u.SubscriptionIsActive())
	assert.Equal(t, SubscriptionActive, u.SubscriptionStatus)

	assert.True(t, u.RefreshSubscriptionStatus())
	assert.Equal(t, SubscriptionExpired, u.SubscriptionStatus)
	assert.False(t, u.RefreshSubscriptionStatus())
}
