package profile

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketdesk/internal/domain"
	"marketdesk/internal/interfaces/handlers/handlertest"
	"marketdesk/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProfile(t *testing.T) *handlertest.Env {
	env := handlertest.New(t)
	h := &Handlers{Activity: handlertest.Recorder(t)}
	g := env.App.Group("/profile", middleware.RequireAuth())
	g.Get("/", h.Get)
	g.Put("/", h.Update)
	g.Post("/image", h.UploadImage)

	env.Upstream.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		user := map[string]interface{}{"_id": "u1", "name": "Ann", "role": "seller", "phone": "+1 555 0100"}
		if r.Method == http.MethodPut {
			var fields map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&fields)
			for k, v := range fields {
				user[k] = v
			}
		}
		handlertest.JSON(w, http.StatusOK, map[string]interface{}{"user": user})
	})
	env.Upstream.HandleFunc("/api/profile/image", func(w http.ResponseWriter, r *http.Request) {
		f, fh, err := r.FormFile("image")
		if err != nil {
			handlertest.JSON(w, http.StatusBadRequest, map[string]string{"message": "no image"})
			return
		}
		defer f.Close()
		handlertest.JSON(w, http.StatusOK, map[string]string{"url": "https://cdn.example.com/" + fh.Filename})
	})
	env.SignIn("s1", domain.User{ID: "u1", Name: "Ann", Role: "seller"})
	return env
}

func TestGet(t *testing.T) {
	env := setupProfile(t)
	resp := env.Do(t, handlertest.Request{Method: "GET", Path: "/profile", Session: "s1"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "+1 555 0100", resp.Data()["phone"])
}

func TestUpdate_RefreshesSignedInUser(t *testing.T) {
	env := setupProfile(t)
	body := map[string]string{"name": "Ann Lee"}

	pending := env.Do(t, handlertest.Request{Method: "PUT", Path: "/profile", Session: "s1", Body: body})
	require.Equal(t, http.StatusConflict, pending.Status)

	resp := env.Do(t, handlertest.Request{Method: "PUT", Path: "/profile", Session: "s1", Body: body, Confirm: true})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Ann Lee", resp.Data()["name"])

	ws, ok := env.Registry.Lookup("s1")
	require.True(t, ok)
	u, _ := ws.Session.User()
	assert.Equal(t, "Ann Lee", u.Name)
}

func TestUpdate_RejectsFieldsOutsideTheForm(t *testing.T) {
	env := setupProfile(t)
	resp := env.Do(t, handlertest.Request{Method: "PUT", Path: "/profile", Session: "s1", Confirm: true,
		Body: map[string]string{"role": "admin"}})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func upload(t *testing.T, env *handlertest.Env, name string, content []byte, confirm bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, _ = part.Write(content)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/profile/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s1"})
	if confirm {
		req.Header.Set(middleware.ConfirmHeader, "true")
	}
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestUploadImage(t *testing.T) {
	env := setupProfile(t)
	resp := upload(t, env, "me.png", []byte("PNGDATA"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "https://cdn.example.com/me.png")
}

func TestUploadImage_WrongType(t *testing.T) {
	env := setupProfile(t)
	resp := upload(t, env, "me.gif", []byte("GIF89a"), true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadImage_MissingFile(t *testing.T) {
	env := setupProfile(t)
	resp := env.Do(t, handlertest.Request{Method: "POST", Path: "/profile/image", Session: "s1", Confirm: true})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}
