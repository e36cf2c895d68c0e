package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/blueprint-share/pkg/blueprints"
)

func TestRegisterAndLoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/register", "", map[string]string{
			"username": "alice",
			"email":    "alice2@example.com",
			"password": "pw",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/register", "", map[string]string{
			"username": "bob",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var login struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}

	t.Run("login issues a token", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/login", "", map[string]string{
			"username": "alice",
			"password": "pw",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
		assert.NotEmpty(t, login.Token)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/login", "", map[string]string{
			"username": "alice",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token opens the session routes", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", login.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var user blueprints.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, login.UserID, user.ID)
	})

	t.Run("session routes reject anonymous callers", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGenerateAPIKeyRoute(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLogin(t, "keyed")

	rec := s.do(t, http.MethodPost, "/users/apikey", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{35}$`), body["api_key"])
}

func TestDeleteAccountDetachesBlueprints(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.registerAndLogin(t, "leaver")

	result, err := s.svc.CreateBlueprint(context.Background(), blueprints.CreateBlueprintRequest{
		Title:    "Left behind",
		Content:  validContent,
		Exposure: blueprints.ExposurePublic,
		IDAuthor: &userID,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodDelete, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Account gone, blueprint soft-deleted with it.
	rec = s.do(t, http.MethodPost, "/users/login", "", map[string]string{
		"username": "leaver",
		"password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/blueprints/"+result.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
