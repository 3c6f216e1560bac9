package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/domain"
	"signet/internal/relay"
)

func TestFindUser_NotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/name/ghost", r.URL.Path)
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	rec, err := relay.NewHTTP(srv.URL, srv.Client()).FindUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindUser_BodyUnchanged(t *testing.T) {
	body := `{"username":"alice","publicKey":"ssh-ed25519 AAAA","extra":{"n":1}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/name/alice", r.URL.Path)
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	rec, err := relay.NewHTTP(srv.URL+"/", srv.Client()).FindUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(rec))
}

func TestFindUser_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := relay.NewHTTP(srv.URL, srv.Client()).FindUser(context.Background(), "alice")
	require.Error(t, err)

	var se *relay.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Body)
	assert.NotErrorIs(t, err, relay.ErrNotFound)
}

func TestRegisterUser_PostsBodyAndReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reg domain.Registration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
		assert.Equal(t, domain.Username("alice"), reg.Username)
		assert.Equal(t, "ssh-ed25519 AAAA", reg.PublicKey)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"username":"alice"}`)
	}))
	defer srv.Close()

	out, err := relay.NewHTTP(srv.URL, srv.Client()).RegisterUser(context.Background(), domain.Registration{
		Username:  "alice",
		PublicKey: "ssh-ed25519 AAAA",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"username":"alice"}`, string(out))
}

func TestRegisterUser_ConflictPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "taken", http.StatusConflict)
	}))
	defer srv.Close()

	_, err := relay.NewHTTP(srv.URL, srv.Client()).RegisterUser(context.Background(), domain.Registration{Username: "alice"})
	var se *relay.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
}

func TestChallengeAndSubmit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /token/{username}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.PathValue("username"))
		_, _ = io.WriteString(w, `{"sessionToken":"chal-1"}`)
	})
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		var sub domain.AuthSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "sig", sub.Signature)
		assert.Equal(t, domain.Fingerprint("fp"), sub.Fingerprint)
		assert.Equal(t, domain.Username("alice"), sub.Username)
		_, _ = io.WriteString(w, `{"success":false}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, srv.Client())

	chal, err := c.FetchChallenge(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "chal-1", chal.SessionToken)

	verdict, err := c.SubmitAuth(context.Background(), domain.AuthSubmission{
		Signature:   "sig",
		Fingerprint: "fp",
		Username:    "alice",
	})
	require.NoError(t, err)
	assert.False(t, verdict.Success)
	assert.Empty(t, verdict.Token)
}
