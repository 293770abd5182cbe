package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	srv *httptest.Server

	mu       sync.Mutex
	statuses []string
}

func newFakeMarket(t *testing.T) *fakeMarket {
	f := &fakeMarket{}
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	seller := map[string]string{"_id": "u1", "name": "Ann", "email": "ann@example.com", "role": "seller"}
	signedIn := func(r *http.Request) bool {
		ck, err := r.Cookie("token")
		return err == nil && ck.Value == "abc"
	}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "Secret#123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": seller})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": seller})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("/api/interests/business/b1", func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"_id": "l1", "status": "negotiating", "quantity": 2, "price": 50, "createdAt": "2026-02-01T00:00:00Z",
				"buyer": map[string]string{"_id": "u7", "name": "Bea"}, "asset": map[string]interface{}{"_id": "a1", "title": "Teak chair"}},
		})
	})
	mux.HandleFunc("/api/interests/l1/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.statuses = append(f.statuses, body["status"])
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"_id": "l1", "status": body["status"]})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeMarket) run(t *testing.T, state, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api-url", f.srv.URL + "/api", "--state", state}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_LoginPersistsSessionAcrossRuns(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")

	out, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "Secret#123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ann (seller)")

	raw, err := os.ReadFile(state)
	require.NoError(t, err)
	var saved savedState
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.NotNil(t, saved.Auth)
	assert.True(t, saved.Auth.Authenticated)
	require.Len(t, saved.Cookies, 1)
	assert.Equal(t, "abc", saved.Cookies[0].Value)

	out, err = market.run(t, state, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ann <ann@example.com>")
}

func TestCLI_WrongPasswordKeepsNoState(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")

	_, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "nope")
	require.Error(t, err)
	_, statErr := os.Stat(state)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCLI_LeadsAcceptNeedsConfirmation(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")
	_, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "Secret#123")
	require.NoError(t, err)

	_, err = market.run(t, state, "n\n", "leads", "accept", "b1", "l1")
	require.Error(t, err)
	assert.Empty(t, market.statuses)

	out, err := market.run(t, state, "", "--yes", "leads", "accept", "b1", "l1")
	require.NoError(t, err)
	assert.Contains(t, out, "l1")
	assert.Contains(t, out, "accepted")
	assert.Equal(t, []string{"accepted"}, market.statuses)
}

func TestCLI_LeadsList(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")
	_, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "Secret#123")
	require.NoError(t, err)

	out, err := market.run(t, state, "", "leads", "list", "b1")
	require.NoError(t, err)
	assert.Contains(t, out, "Teak chair")
	assert.Contains(t, out, "negotiating")
}

func TestCLI_AdminRequiresAdminRole(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")
	_, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "Secret#123")
	require.NoError(t, err)

	_, err = market.run(t, state, "", "admin", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin role")
}

func TestCLI_LogoutRemovesState(t *testing.T) {
	market := newFakeMarket(t)
	state := filepath.Join(t.TempDir(), "session.json")
	_, err := market.run(t, state, "", "login", "--email", "ann@example.com", "--password", "Secret#123")
	require.NoError(t, err)

	out, err := market.run(t, state, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, statErr := os.Stat(state)
	assert.True(t, os.IsNotExist(statErr))

	_, err = market.run(t, state, "", "whoami")
	assert.ErrorIs(t, err, errSignedOut)
}
