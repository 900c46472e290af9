//go:build !integration

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/store"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type recordingNav struct {
	paths []string
	backs int
}

func (n *recordingNav) Navigate(ctx context.Context, path string) { n.paths = append(n.paths, path) }
func (n *recordingNav) Back(ctx context.Context)                  { n.backs++ }

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *store.MemoryStore, *recordingNav) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	st := store.NewMemoryStore()
	nav := &recordingNav{}
	c, err := NewClient(Options{BaseURL: srv.URL + "/"}, st, nav, newTestLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, st, nav
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestClient_SendsBearerToken(t *testing.T) {
	// Arrange
	var auth string
	c, st, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})
	_ = st.Set(context.Background(), repository.KeyToken, "opaque-token")

	// Act
	env, err := c.Call(context.Background(), http.MethodGet, EndpointGetPlans, nil)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Success {
		t.Error("envelope success lost")
	}
	if auth != "Bearer opaque-token" {
		t.Errorf("Authorization: got %q", auth)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var auth string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	if _, err := c.Call(context.Background(), http.MethodGet, EndpointGetPlans, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "" {
		t.Errorf("signed-out calls must not send a token, got %q", auth)
	}
}

func TestClient_BareArrayIsWrapped(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [{"id":1},{"id":2}]`))
	})
	env, err := c.Call(context.Background(), http.MethodGet, EndpointGetMovies, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]int
	if err := env.DecodeData(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || len(rows) != 2 {
		t.Errorf("got success=%v rows=%v", env.Success, rows)
	}
}

func TestClient_401SignsOut(t *testing.T) {
	// Arrange
	c, st, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()
	_ = st.Set(ctx, repository.KeyToken, "stale")
	_ = st.Set(ctx, repository.KeyCurrentPlanID, "3")

	// Act
	_, err := c.Call(ctx, http.MethodGet, EndpointGetPlans, nil)

	// Assert
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
	if len(st.Snapshot()) != 0 {
		t.Errorf("store should be cleared, got %v", st.Snapshot())
	}
	if len(nav.paths) != 1 || nav.paths[0] != LoginPath {
		t.Errorf("navigation: %v", nav.paths)
	}
}

func TestClient_ExpiredJWTNeverLeaves(t *testing.T) {
	hits := 0
	c, st, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx := context.Background()
	_ = st.Set(ctx, repository.KeyToken, signedToken(t, time.Now().Add(-time.Minute)))

	_, err := c.Call(ctx, http.MethodGet, EndpointGetPlans, nil)

	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
	if hits != 0 {
		t.Errorf("request should not be sent, hits=%d", hits)
	}
	if len(nav.paths) != 1 {
		t.Errorf("expected redirect to login, got %v", nav.paths)
	}
}

func TestClient_ValidJWTPasses(t *testing.T) {
	c, st, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx := context.Background()
	_ = st.Set(ctx, repository.KeyToken, signedToken(t, time.Now().Add(time.Hour)))

	if _, err := c.Call(ctx, http.MethodGet, EndpointGetPlans, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Non2xxCarriesMessage(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid phone"}`))
	})
	_, err := c.Call(context.Background(), http.MethodPost, EndpointInitiateSTK, map[string]string{"phone": "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Invalid phone" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestClient_PostsJSONBody(t *testing.T) {
	var body map[string]any
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method=%s content-type=%s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	_, err := c.Call(context.Background(), http.MethodPost, EndpointSTKStatus, map[string]string{"checkoutRequestID": "ws_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["checkoutRequestID"] != "ws_1" {
		t.Errorf("body: %v", body)
	}
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1}, store.NewMemoryStore(), nil, newTestLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Call(context.Background(), http.MethodGet, EndpointGetPlans, nil); err != nil {
		t.Fatalf("first call uses the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Call(ctx, http.MethodGet, EndpointGetPlans, nil); err == nil {
		t.Fatal("second call should be throttled past the deadline")
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}, store.NewMemoryStore(), nil, newTestLogger()); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolveMediaURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", DefaultPoster},
		{"https://cdn.example.com/a.mp4", "https://cdn.example.com/a.mp4"},
		{"http://x/a.mp4", "http://x/a.mp4"},
		{"/media/a.mp4", "https://media.flixgo.test/media/a.mp4"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.in), func(t *testing.T) {
			if got := ResolveMediaURL("https://media.flixgo.test", tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCatalog_ListsFromEnvelope(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EndpointGetPlans:
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":2,"plan_name":"Basic","monthly_price":"4.99","yearly_price":null,"is_active":true}]}`))
		case EndpointGetMovies:
			_, _ = w.Write([]byte(`[{"id":9,"title":"Heat","video_url":"/v/9.mp4"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	cat := NewCatalog(c, "https://media.flixgo.test/")
	ctx := context.Background()

	plans, err := cat.ListPlans(ctx)
	if err != nil || len(plans) != 1 {
		t.Fatalf("ListPlans: %v %v", plans, err)
	}
	if plans[0].Name != "Basic" || plans[0].YearlyPrice.Valid || !plans[0].IsActive {
		t.Errorf("plan decoded wrong: %+v", plans[0])
	}

	movies, err := cat.ListMovies(ctx)
	if err != nil || len(movies) != 1 || movies[0].VideoURL != "/v/9.mp4" {
		t.Fatalf("ListMovies: %v %v", movies, err)
	}
	if got := cat.MediaURL(movies[0].VideoURL); got != "https://media.flixgo.test/v/9.mp4" {
		t.Errorf("MediaURL: %q", got)
	}
}

func TestCatalog_UnsuccessfulEnvelope(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"maintenance"}`))
	})
	_, err := NewCatalog(c, "").ListPlans(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "maintenance" {
		t.Fatalf("want APIError with message, got %v", err)
	}
}
