package marketapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 5*time.Second, 0)
}

func TestLogin_CapturesAndReplaysSessionCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var in Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "ann@example.com", in.Email)
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte(`{"user": {"_id": "u1", "name": "Ann", "role": "seller"}}`))
		case "/api/auth/me":
			ck, err := r.Cookie("token")
			if err != nil || ck.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message": "Not authenticated"}`))
				return
			}
			_, _ = w.Write([]byte(`{"user": {"_id": "u1", "name": "Ann", "role": "seller"}}`))
		}
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	u, err := c.Login(context.Background(), Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "seller", u.Role)
	require.Len(t, c.Cookies(), 1)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
}

func TestLogout_ClearsCookiesEvenOnFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.SetCookies([]*http.Cookie{{Name: "token", Value: "abc"}})

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Cookies())
}

func TestAPIError_MessageFromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Interest not found"}`))
	})
	_, err := c.UpdateInterestStatus(context.Background(), "missing", domain.LeadAccepted)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Interest not found")
}

func TestListBusinessInterests_SendsFilterAsQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interests/business/b%201", r.URL.EscapedPath())
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"_id": "l1", "status": "accepted"}]`))
	})
	leads, err := c.ListBusinessInterests(context.Background(), "b 1", domain.LeadFilter{Status: domain.LeadAccepted})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "status=accepted", gotQuery)
	assert.Equal(t, domain.Accepted{}, leads[0].State)
}

func TestCreateSale_PostsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in domain.CreateSaleInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 150.0, in.Price)
		assert.Equal(t, 3, in.Quantity)
		assert.Equal(t, domain.SalesSold, in.Status)
		assert.Equal(t, "l1", in.InterestID)
		_, _ = w.Write([]byte(`{"_id": "sale-1"}`))
	})
	sale, err := c.CreateSale(context.Background(), domain.CreateSaleInput{
		Price: 150, Quantity: 3, Status: domain.SalesSold, InterestID: "l1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sale-1", sale.ID)
}

func TestUploadProfileImage_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "avatar.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(b))
		_, _ = w.Write([]byte(`{"url": "https://cdn.example.com/avatar.png"}`))
	})
	up, err := c.UploadProfileImage(context.Background(), "/tmp/avatar.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatar.png", up.URL)
}

func TestRateLimiter_HonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.NoError(t, c.DeleteSale(context.Background(), "s1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.DeleteSale(ctx, "s2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
