package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"marketdesk/internal/application/session"
	"marketdesk/internal/application/workspace"
)

// savedState is the CLI's sign-in between runs.
type savedState struct {
	Cookies []savedCookie     `json:"cookies"`
	Auth    *session.Snapshot `json:"auth,omitempty"`
}

type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

func loadState(path string, ws *workspace.Workspace) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state %s: %w", path, err)
	}
	var st savedState
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("state %s is corrupt, delete it and sign in again: %w", path, err)
	}
	cookies := make([]*http.Cookie, 0, len(st.Cookies))
	for _, ck := range st.Cookies {
		cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	ws.API.SetCookies(cookies)
	ws.Session.Restore(st.Auth)
	return nil
}

// saveState writes the file only once the session resolved. Signed-out state
// removes it.
func saveState(path string, ws *workspace.Workspace) error {
	snap := ws.Session.Snapshot()
	if snap == nil {
		return nil
	}
	if !snap.Authenticated {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove state %s: %w", path, err)
		}
		return nil
	}
	st := savedState{Auth: snap}
	for _, ck := range ws.API.Cookies() {
		st.Cookies = append(st.Cookies, savedCookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}
