package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"aponte/internal/apiclient"
	"aponte/internal/models"
	"aponte/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves the client contract from memory and records every call
type fakeBackend struct {
	mu sync.Mutex

	calls  []string
	status map[string]int
	auth   []string

	profile    models.Profile
	match      *models.MatchOfTheDay
	messages   []models.Message
	lastUpdate models.ProfileUpdate
	uploads    int
	deletes    int
	sent       []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		status: map[string]int{},
		profile: models.Profile{
			ID: 11, UserID: 7, Name: "Rita", BirthDate: "1995-06-15",
			Bio: "Hi", LastLocation: "Lisboa",
		},
	}
}

// fail makes the route answer with status
func (b *fakeBackend) fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[route] = status
}

func (b *fakeBackend) record(route string, r *http.Request) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, route)
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	status, failing := b.status[route]
	return status, failing
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) Count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == route {
			n++
		}
	}
	return n
}

func (b *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()

	handle := func(method, pattern, route string, fn http.HandlerFunc) {
		r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
			if status, failing := b.record(route, req); failing {
				writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
				return
			}
			fn(w, req)
		})
	}

	handle(http.MethodPost, "/api/auth/register", "register", func(w http.ResponseWriter, req *http.Request) {
		var body struct{ Email string }
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, apiclient.RegisterResult{ID: 7, Email: body.Email})
	})
	handle(http.MethodPost, "/api/auth/login", "login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, models.Session{Token: "tok-7", UserID: 7})
	})
	handle(http.MethodGet, "/api/profiles/user/{userId}", "get profile", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		p := b.profile
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, p)
	})
	handle(http.MethodPut, "/api/profiles/user/{userId}", "update profile", func(w http.ResponseWriter, req *http.Request) {
		var update models.ProfileUpdate
		_ = json.NewDecoder(req.Body).Decode(&update)
		b.mu.Lock()
		b.lastUpdate = update
		b.profile.Name = update.Name
		b.profile.BirthDate = update.BirthDate
		b.profile.Bio = update.Bio
		b.profile.LastLocation = update.LastLocation
		b.profile.Interests = update.Interests
		p := b.profile
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, p)
	})
	handle(http.MethodGet, "/api/matches/today", "today", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		m := b.match
		b.mu.Unlock()
		if m == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	handle(http.MethodGet, "/api/matches/{matchId}/messages", "list messages", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		out := append([]models.Message{}, b.messages...)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	})
	handle(http.MethodPost, "/api/matches/{matchId}/messages", "send message", func(w http.ResponseWriter, req *http.Request) {
		matchID, _ := strconv.ParseInt(chi.URLParam(req, "matchId"), 10, 64)
		var body struct{ Text string }
		_ = json.NewDecoder(req.Body).Decode(&body)
		b.mu.Lock()
		msg := models.Message{
			ID: int64(len(b.messages) + 1), MatchID: matchID, SenderID: 7, ReceiverID: 8,
			Text: body.Text, CreatedAt: time.Now().UTC(),
		}
		b.messages = append(b.messages, msg)
		b.sent = append(b.sent, body.Text)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, msg)
	})
	handle(http.MethodPost, "/photos/upload", "upload photo", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		b.mu.Lock()
		b.uploads++
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"photoUrl": "/photos/" + req.FormValue("profileId")})
	})
	handle(http.MethodDelete, "/photos/{profileId}", "delete photo", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.deletes++
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	backend *fakeBackend
	client  *apiclient.Client
	store   *session.MemoryStore
	app     *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := newFakeBackend()
	server := httptest.NewServer(backend.routes())
	t.Cleanup(server.Close)

	client, err := apiclient.NewClient(server.URL, time.Second)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	app := NewApp(client, store, zerolog.Nop(), Options{
		PollInterval:      20 * time.Millisecond,
		CountdownInterval: 20 * time.Millisecond,
		ChangeDetection:   "fingerprint",
		Now:               func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(app.Close)

	return &harness{backend: backend, client: client, store: store, app: app}
}

// signedIn restores a stored session for user 7
func (h *harness) signedIn(t *testing.T) Snapshot {
	t.Helper()
	h.store.SetRaw("tok-7", "7")
	snap, err := h.app.Session.Bootstrap(t.Context())
	require.NoError(t, err)
	return snap
}

func todayMatch(id int64) *models.MatchOfTheDay {
	return &models.MatchOfTheDay{
		ID:             id,
		MatchedProfile: models.Profile{ID: 12, UserID: 8, Name: "Bruno"},
		ExpiresAt:      time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}
