package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, testLogger())
	assert.Error(t, err)
}

func TestCall_PostsJSON(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"customers":[]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/api/"}, testLogger())
	require.NoError(t, err)

	body, err := c.Call(context.Background(), "/customerName", map[string]string{"Name": "Jane"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/customerName", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"Name":"Jane"}`, string(gotBody))
	assert.JSONEq(t, `{"customers":[]}`, string(body))
}

func TestCall_NilPayloadSendsEmptyBody(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotLen = len(b)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "customerList", nil)
	require.NoError(t, err)
	assert.Zero(t, gotLen)
}

func TestCall_KeepsSessionCookie(t *testing.T) {
	var sawToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/userLogin":
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
			w.Write([]byte(`{"Message":"Login successfully","token":"abc"}`))
		default:
			if ck, err := r.Cookie("token"); err == nil {
				sawToken = ck.Value
			}
			w.Write([]byte(`{"Message":"ok"}`))
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "userLogin", map[string]string{"Username": "a", "Password": "b"})
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "customerList", nil)
	require.NoError(t, err)

	assert.Equal(t, "abc", sawToken)
}

func TestSetToken_RestoresPersistedSession(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(CookieName)
		if err == nil {
			seen = append(seen, ck.Value)
		} else {
			seen = append(seen, "")
		}
		w.Write([]byte(`{"Message":"ok"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/api"}, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	c.SetToken("persisted")
	_, err = c.Call(ctx, "userAuthentication", map[string]string{"Token": "persisted"})
	require.NoError(t, err)

	c.ClearToken()
	_, err = c.Call(ctx, "customerList", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"persisted", ""}, seen)
}

func TestCall_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"Message":"Error CRMS : This customer is already existed."}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "customerCre", map[string]string{"Name": "x"})
	require.Error(t, err)
	assert.True(t, IsStatus(err))
	assert.False(t, IsUnavailable(err))

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
	assert.Equal(t, "customerCre", terr.Endpoint)
	assert.Contains(t, string(terr.ResponseBody()), "already existed")
}

func TestCall_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url}, testLogger())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "customerList", nil)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestCall_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1}, testLogger())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "customerList", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Call(ctx, "customerList", nil)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
