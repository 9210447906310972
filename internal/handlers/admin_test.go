package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akram409/leafora-web-server/internal/handlers"
	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/models"
	"github.com/Akram409/leafora-web-server/internal/routes"
	"github.com/Akram409/leafora-web-server/internal/services"
	"github.com/Akram409/leafora-web-server/internal/store"
)

// memStore backs the handler tests with an in-memory UserStore.
type memStore struct {
	records map[string]*models.UserRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.UserRecord)}
}

func (m *memStore) Get(_ context.Context, uid string) (*models.UserRecord, error) {
	r, ok := m.records[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) List(_ context.Context, filter store.ListFilter) ([]*models.UserRecord, error) {
	var out []*models.UserRecord
	for _, r := range m.records {
		if filter.Role != "" && r.Role != filter.Role {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Plan != "" && r.Plan != filter.Plan {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, record *models.UserRecord) error {
	cp := *record
	m.records[record.UserID] = &cp
	return nil
}

func (m *memStore) Replace(_ context.Context, record *models.UserRecord) error {
	if _, ok := m.records[record.UserID]; !ok {
		return store.ErrNotFound
	}
	cp := *record
	m.records[record.UserID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, uid string) error {
	if _, ok := m.records[uid]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, uid)
	return nil
}

// tokenGateway resolves fixed bearer tokens to uids.
type tokenGateway struct {
	tokens  map[string]string
	nextUID int
}

func (g *tokenGateway) VerifyToken(_ context.Context, token string) (string, error) {
	uid, ok := g.tokens[token]
	if !ok {
		return "", identity.ErrInvalidToken
	}
	return uid, nil
}

func (g *tokenGateway) IssueToken(_ context.Context, email, password string) (string, error) {
	if password != "open sesame" {
		return "", identity.ErrInvalidCredentials
	}
	return "token-for-" + email, nil
}

func (g *tokenGateway) CreateUser(_ context.Context, account identity.NewAccount) (string, error) {
	g.nextUID++
	return fmt.Sprintf("uid-%d", g.nextUID), nil
}

func (g *tokenGateway) UpdateUser(_ context.Context, uid string, update identity.AccountUpdate) error {
	return nil
}

func (g *tokenGateway) DeleteUser(_ context.Context, uid string) error {
	return nil
}

// newTestServer wires the real route table over in-memory fakes. The admin
// token resolves to a seeded admin record, the user token to a plain user.
func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	ms := newMemStore()
	gw := &tokenGateway{tokens: map[string]string{
		"admin-token": "admin-uid",
		"user-token":  "user-uid",
	}}

	seed := func(uid string, fields map[string]any) {
		record := models.NewUserRecord(fields)
		record.UserID = uid
		require.NoError(t, ms.Create(context.Background(), record))
	}
	seed("admin-uid", map[string]any{
		"userName":  "Admin",
		"userEmail": "admin@leafora.app",
		"userPhone": "01700000000",
		"role":      models.RoleAdmin,
	})
	seed("user-uid", map[string]any{
		"userName":  "Member",
		"userEmail": "member@leafora.app",
		"userPhone": "01711111111",
	})

	users := services.NewUserService(ms, gw)
	analytics := services.NewAnalyticsService(ms, nil)

	r := chi.NewRouter()
	routes.SetupRoutes(r, routes.Handlers{
		Auth:     handlers.NewAuthHandler(users, gw, nil, 0),
		Admin:    handlers.NewAdminHandler(users, analytics),
		Profile:  handlers.NewProfileHandler(users, nil),
		Presence: handlers.NewPresenceHandler(users, gw),
	}, gw, nil, users)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, ms
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No token provided", body["message"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/admin/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/admin/users", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required", body["message"])
}

func TestAdminUserLifecycle(t *testing.T) {
	srv, ms := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/admin/users", "admin-token", map[string]any{
		"userName":  "Rahim",
		"userEmail": "rahim@leafora.app",
		"userPhone": "01722334455",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["user"].(map[string]any)
	uid := created["userId"].(string)
	assert.NotEmpty(t, uid)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/admin/users/"+uid, "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rahim@leafora.app", body["userEmail"])

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/admin/users/"+uid, "admin-token", map[string]any{
		"about": "keeps succulents alive",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "keeps succulents alive", body["user"].(map[string]any)["about"])

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/admin/users/"+uid+"/subscription", "admin-token", map[string]any{
		"action":   "activate",
		"type":     "premium",
		"duration": "monthly",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub := body["user"].(map[string]any)
	assert.Equal(t, models.SubscriptionActive, sub["subscriptionStatus"])

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/admin/users/"+uid, "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := ms.Get(context.Background(), uid)
	assert.ErrorIs(t, err, store.ErrNotFound)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/admin/users/"+uid, "admin-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["message"])
}

func TestCreateUserValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/admin/users", "admin-token", map[string]any{
		"userName":  "A",
		"userEmail": "bad",
		"userPhone": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Len(t, body["errors"], 3)
}

func TestAdminLoginAndLogout(t *testing.T) {
	srv, ms := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/admin/login", "", map[string]any{
		"idToken": "admin-token",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Admin login successful", body["message"])
	record, err := ms.Get(context.Background(), "admin-uid")
	require.NoError(t, err)
	assert.True(t, record.IsOnline)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/admin/login", "", map[string]any{
		"idToken": "user-token",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/admin/logout", "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logout successful", body["message"])
	record, err = ms.Get(context.Background(), "admin-uid")
	require.NoError(t, err)
	assert.False(t, record.IsOnline)
}

func TestTokenEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/token", "", map[string]any{
		"email":    "member@leafora.app",
		"password": "open sesame",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "token-for-member@leafora.app", body["token"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/token", "", map[string]any{
		"email":    "member@leafora.app",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileUpdateIgnoresRestrictedFields(t *testing.T) {
	srv, ms := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/users/profile", "user-token", map[string]any{
		"about": "balcony gardener",
		"role":  models.RoleAdmin,
		"plan":  models.PlanPro,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := body["user"].(map[string]any)
	assert.Equal(t, "balcony gardener", updated["about"])
	assert.Equal(t, models.RoleUser, updated["role"])

	record, err := ms.Get(context.Background(), "user-uid")
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, record.Plan)
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/admin/analytics", "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["totalUsers"])
}
