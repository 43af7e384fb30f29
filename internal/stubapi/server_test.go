package stubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionguard/sessionguard/internal/gateway"
	"github.com/sessionguard/sessionguard/internal/session"
)

func newClient(t *testing.T, url string) (*gateway.Gateway, *session.Store) {
	t.Helper()
	gw, err := gateway.New(url)
	require.NoError(t, err)
	return gw, session.New(gw, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "online", body["status"])
}

func TestGetUser_RequiresCookie(t *testing.T) {
	_, srv := newTestServer(t)
	gw, store := newClient(t, srv.URL)

	var statuses []int
	gw.OnUnauthorized(func(_ context.Context, r *gateway.Response) { statuses = append(statuses, r.StatusCode) })

	assert.False(t, store.FetchUser(context.Background()))
	assert.Equal(t, []int{http.StatusUnauthorized}, statuses)
}

func TestLoginFetchLogout(t *testing.T) {
	_, srv := newTestServer(t)
	gw, store := newClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, store.Login(ctx, testAdminEmail, testAdminPassword))
	assert.True(t, store.IsAuthenticated())
	assert.True(t, store.IsAdmin())
	assert.Equal(t, "Administrator", store.User().DisplayName)

	var cookieNames []string
	for _, c := range gw.Cookies() {
		cookieNames = append(cookieNames, c.Name)
	}
	assert.Contains(t, cookieNames, AuthCookie)

	store.Logout(ctx)
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, gw.Cookies(), "logout expires the cookie")

	assert.False(t, store.FetchUser(ctx))
}

func TestLogin_WrongPassword(t *testing.T) {
	_, srv := newTestServer(t)
	_, store := newClient(t, srv.URL)

	err := store.Login(context.Background(), testAdminEmail, "nope")
	assert.ErrorIs(t, err, session.ErrLoginFailed)
	assert.Contains(t, err.Error(), ErrCodeLoginFail)
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_InvalidPayload(t *testing.T) {
	_, srv := newTestServer(t)
	gw, _ := newClient(t, srv.URL)

	resp, err := gw.Request(context.Background(), "/api/login", &gateway.RequestOptions{
		Method: http.MethodPost,
		JSON:   map[string]string{"email": "not-an-email"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterThenLoginAsRegularUser(t *testing.T) {
	_, srv := newTestServer(t)
	_, store := newClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "Ada", "Ada@Example.com", "correct-horse"))

	err := store.Register(ctx, "Ada again", "ada@example.com", "correct-horse")
	assert.ErrorIs(t, err, session.ErrRegistrationFailed, "duplicate email")

	err = store.Register(ctx, "Short", "short@example.com", "pw")
	assert.ErrorIs(t, err, session.ErrRegistrationFailed, "password too short")

	require.NoError(t, store.Login(ctx, "ada@example.com", "correct-horse"))
	assert.False(t, store.IsAdmin())
	assert.Equal(t, RoleUser, store.User().Role)
}

func TestAdminEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()

	_, anon := newClient(t, srv.URL)
	require.NoError(t, anon.Register(ctx, "Bob", "bob@example.com", "bob-password"))

	userGW, user := newClient(t, srv.URL)
	require.NoError(t, user.Login(ctx, "bob@example.com", "bob-password"))
	bobID := user.User().ID

	resp, err := userGW.Request(ctx, "/api/admin/user", &gateway.RequestOptions{
		Method: http.MethodDelete,
		JSON:   DeleteUserRequest{ID: bobID},
	})
	require.NoError(t, err)
	resp.Discard()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, resp.Unauthorized)

	adminGW, admin := newClient(t, srv.URL)
	require.NoError(t, admin.Login(ctx, testAdminEmail, testAdminPassword))

	resp, err = adminGW.Request(ctx, "/api/users", nil)
	require.NoError(t, err)
	var users []UserPresenter
	require.NoError(t, resp.DecodeJSON(&users))
	assert.Len(t, users, 2)

	resp, err = adminGW.Request(ctx, "/api/admin/user", &gateway.RequestOptions{
		Method: http.MethodDelete,
		JSON:   DeleteUserRequest{ID: bobID},
	})
	require.NoError(t, err)
	resp.Discard()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob's token now points at a missing user
	assert.False(t, user.FetchUser(ctx))
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	s, _ := newTestServer(t)

	require.NoError(t, s.seedAdmin())

	var count int64
	require.NoError(t, s.db.Model(&User{}).Where("role = ?", RoleAdmin).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
