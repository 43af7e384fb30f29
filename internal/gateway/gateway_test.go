package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc, opts ...Option) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	gw, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return gw, srv
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost:3000")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = New("/api")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestRequest_DefaultHeadersAndOverrides(t *testing.T) {
	var got http.Header
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}, WithDefaultHeader("X-Client", "sessionguard"))

	resp, err := gw.Request(context.Background(), "/api/user", nil)
	require.NoError(t, err)
	resp.Discard()

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "sessionguard", got.Get("X-Client"))

	resp, err = gw.Request(context.Background(), "/api/upload", &RequestOptions{
		Method:  http.MethodPost,
		Headers: http.Header{"content-type": []string{"text/plain"}},
	})
	require.NoError(t, err)
	resp.Discard()

	assert.Equal(t, []string{"text/plain"}, got.Values("Content-Type"))
	assert.Equal(t, "sessionguard", got.Get("X-Client"))
}

func TestRequest_AlwaysSendsCookies(t *testing.T) {
	calls := 0
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/api/login" {
			http.SetCookie(w, &http.Cookie{Name: "auth-token", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		c, err := r.Cookie("auth-token")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}, WithHTTPClient(&http.Client{}))

	resp, err := gw.Request(context.Background(), "/api/login", &RequestOptions{Method: http.MethodPost})
	require.NoError(t, err)
	resp.Discard()

	resp, err = gw.Request(context.Background(), "/api/user", nil)
	require.NoError(t, err)
	resp.Discard()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.Unauthorized)
	assert.Equal(t, 2, calls)
	require.Len(t, gw.Cookies(), 1)
	assert.Equal(t, "auth-token", gw.Cookies()[0].Name)
}

func TestRequest_SetCookiesSeedsCredentials(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("auth-token"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	gw.SetCookies([]*http.Cookie{{Name: "auth-token", Value: "persisted"}})

	resp, err := gw.Request(context.Background(), "api/user", nil)
	require.NoError(t, err)
	resp.Discard()
	assert.True(t, resp.OK())
}

func TestRequest_ForbiddenNotifiesHandlerAndReturnsResponse(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"NO_AUTH"}`))
	})

	var notified []int
	gw.OnUnauthorized(func(_ context.Context, resp *Response) {
		notified = append(notified, resp.StatusCode)
	})

	resp, err := gw.Request(context.Background(), "/api/admin/user", &RequestOptions{Method: http.MethodDelete})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []int{http.StatusForbidden}, notified)
	assert.True(t, resp.Unauthorized)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"NO_AUTH"}`, string(body))
}

func TestRequest_InterceptedStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, true},
		{http.StatusPaymentRequired, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			called := false
			gw.OnUnauthorized(func(context.Context, *Response) { called = true })

			resp, err := gw.Request(context.Background(), "/api/user", nil)
			require.NoError(t, err)
			resp.Discard()

			assert.Equal(t, tc.want, resp.Unauthorized)
			assert.Equal(t, tc.want, called)
		})
	}
}

func TestRequest_CustomUnauthorizedStatuses(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}, WithUnauthorizedStatuses(http.StatusUnauthorized, http.StatusForbidden))

	resp, err := gw.Request(context.Background(), "/api/user", nil)
	require.NoError(t, err)
	resp.Discard()
	assert.False(t, resp.Unauthorized)
}

func TestRequest_TransportFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	gw, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	called := false
	gw.OnUnauthorized(func(context.Context, *Response) { called = true })

	resp, err := gw.Request(context.Background(), "/api/user", nil)
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.False(t, called)
}

func TestRequest_JSONBody(t *testing.T) {
	var body string
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	})

	resp, err := gw.Request(context.Background(), "/api/login", &RequestOptions{
		Method: http.MethodPost,
		JSON:   map[string]string{"email": "a@b.c"},
	})
	require.NoError(t, err)
	resp.Discard()
	assert.JSONEq(t, `{"email":"a@b.c"}`, body)

	_, err = gw.Request(context.Background(), "/api/login", &RequestOptions{
		Body: http.NoBody,
		JSON: map[string]string{},
	})
	assert.ErrorIs(t, err, ErrBodyConflict)
}

func TestMergeHeaders_DoesNotMutateDefaults(t *testing.T) {
	defaults := http.Header{"Content-Type": []string{"application/json"}}
	merged := mergeHeaders(defaults, http.Header{"Content-Type": []string{"text/csv"}, "Accept": []string{"*/*"}})

	assert.Equal(t, "text/csv", merged.Get("Content-Type"))
	assert.Equal(t, "*/*", merged.Get("Accept"))
	assert.Equal(t, "application/json", defaults.Get("Content-Type"))
}

func TestResolve(t *testing.T) {
	gw, err := New("http://api.test/base/")
	require.NoError(t, err)

	got, err := gw.resolve("/api/user?x=1")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/base/api/user?x=1", got)

	got, err = gw.resolve("https://other.test/ping")
	require.NoError(t, err)
	assert.Equal(t, "https://other.test/ping", got)
}
