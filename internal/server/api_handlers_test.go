package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func issueToken(t *testing.T, srv *Server, username string) string {
	t.Helper()
	req := apiRequest(t, http.MethodPost, "/api/auth/token", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, resp)
	require.NotEmpty(t, body.Token)
	assert.Equal(t, username, body.User.Username)
	return body.Token
}

func TestAPI_IssueToken(t *testing.T) {
	srv, db := newTestServer(t, nil)
	newClient(t, srv).signup(db, "alice")

	issueToken(t, srv, "alice")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", map[string]string{"username": "alice", "password": "nope"}, http.StatusUnauthorized, models.CodeAuthRequired},
		{"unknown user", map[string]string{"username": "ghost", "password": testPassword}, http.StatusUnauthorized, models.CodeAuthRequired},
		{"missing fields", map[string]string{}, http.StatusBadRequest, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.App().Test(apiRequest(t, http.MethodPost, "/api/auth/token", "", tt.body), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode[models.ErrorResponse](t, resp).Code)
		})
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, path := range []string{"/api/users/1", "/api/messages/1"} {
		resp, err := srv.App().Test(apiRequest(t, http.MethodGet, path, "", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeAuthRequired, decode[models.ErrorResponse](t, resp).Code)
	}

	resp, err := srv.App().Test(apiRequest(t, http.MethodGet, "/api/users/1", "garbage", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Messages(t *testing.T) {
	srv, db := newTestServer(t, nil)
	alice := newClient(t, srv).signup(db, "alice")
	newClient(t, srv).signup(db, "bob")
	token := issueToken(t, srv, "alice")
	bobToken := issueToken(t, srv, "bob")

	resp, err := srv.App().Test(apiRequest(t, http.MethodPost, "/api/messages", token, map[string]string{"text": "Hello API"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Message](t, resp)
	assert.Equal(t, "Hello API", created.Text)
	assert.Equal(t, alice.ID, created.UserID)

	resp, err = srv.App().Test(apiRequest(t, http.MethodPost, "/api/messages", token, map[string]string{"text": strings.Repeat("x", 141)}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)

	padded := "  " + strings.Repeat("y", 140) + "  "
	resp, err = srv.App().Test(apiRequest(t, http.MethodPost, "/api/messages", bobToken, map[string]string{"text": padded}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	trimmed := decode[models.Message](t, resp)
	assert.Equal(t, strings.Repeat("y", 140), trimmed.Text)
	require.NoError(t, db.Delete(&models.Message{}, trimmed.ID).Error)

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, fmt.Sprintf("/api/messages/%d", created.ID), bobToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Message](t, resp)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice", got.User.Username)

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, fmt.Sprintf("/api/users/%d", alice.ID), bobToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[models.UserProfile](t, resp)
	assert.Equal(t, int64(1), profile.MessageCount)

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, fmt.Sprintf("/api/users/%d/messages", alice.ID), bobToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]models.Message](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	require.NotNil(t, listed[0].User)
	assert.Equal(t, "alice", listed[0].User.Username)

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, "/api/users/99999/messages", bobToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, resp).Code)

	resp, err = srv.App().Test(apiRequest(t, http.MethodDelete, fmt.Sprintf("/api/messages/%d", created.ID), bobToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeForbidden, decode[models.ErrorResponse](t, resp).Code)
	assert.Equal(t, int64(1), countMessages(t, db))

	resp, err = srv.App().Test(apiRequest(t, http.MethodDelete, fmt.Sprintf("/api/messages/%d", created.ID), token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, countMessages(t, db))

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, fmt.Sprintf("/api/messages/%d", created.ID), token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, resp).Code)

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, "/api/users/abc", token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_, _ = io.Copy(io.Discard, resp.Body)
}

func TestAPI_TokenOfDeletedUserIsRejected(t *testing.T) {
	srv, db := newTestServer(t, nil)
	c := newClient(t, srv)
	alice := c.signup(db, "alice")
	token := issueToken(t, srv, "alice")

	resp, _ := c.post("/users/delete", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err := srv.App().Test(apiRequest(t, http.MethodPost, "/api/messages", token, map[string]string{"text": "from beyond"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeAuthRequired, decode[models.ErrorResponse](t, resp).Code)
	assert.Zero(t, countMessages(t, db))

	resp, err = srv.App().Test(apiRequest(t, http.MethodGet, fmt.Sprintf("/api/users/%d", alice.ID), token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_, _ = io.Copy(io.Discard, resp.Body)
}
