package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aponte/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, time.Second)
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "localhost:8080", "/relative"} {
		_, err := NewClient(raw, time.Second)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr, raw)
		assert.Equal(t, KindRequest, reqErr.Kind)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/profiles/user/7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.Profile{ID: 3, UserID: 7, Name: "Rita"})
	})
	client.SetToken("tok-1")

	profile, err := client.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Rita", profile.Name)
	assert.Equal(t, int64(3), profile.ID)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		_, _ = w.Write([]byte(`{"token":"t","userId":12}`))
	})

	sess, err := client.Login(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, &models.Session{Token: "t", UserID: 12}, sess)
	assert.Empty(t, client.Token())
}

func TestClientClassifiesRejection(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "wrong-pass")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindRejected, reqErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.False(t, IsTransport(err))
}

func TestClientClassifiesTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url, time.Second)
	require.NoError(t, err)

	_, err = client.TodayMatch(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClientClassifiesTimeoutAsTransport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 30*time.Millisecond)
	require.NoError(t, err)

	_, err = client.ListMessages(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestTodayMatchNoContent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	match, err := client.TodayMatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestTodayMatchDecodes(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"matchedProfile":{"id":2,"userId":5,"name":"Juliana"},"expiresAt":"2026-10-16T00:00:00Z"}`))
	})

	match, err := client.TodayMatch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, int64(9), match.ID)
	assert.Equal(t, "Juliana", match.MatchedProfile.Name)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), match.ExpiresAt.UTC())
}

func TestClientDecodeErrorKind(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.ListMessages(context.Background(), 4)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindDecode, reqErr.Kind)
}

func TestUploadPhotoBuildsMultipart(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/photos/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "31", r.FormValue("profileId"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "me.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "PNGDATA", string(data))

		_, _ = w.Write([]byte(`{"photoUrl":"http://x/photos/31"}`))
	})
	client.SetToken("tok")

	photoURL, err := client.UploadPhoto(context.Background(), 31, models.PhotoUpload{
		Filename: "me.png",
		Body:     strings.NewReader("PNGDATA"),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://x/photos/31", photoURL)
}

func TestUploadPhotoRequiresBody(t *testing.T) {
	t.Parallel()

	client, err := NewClient("http://localhost:1", time.Second)
	require.NoError(t, err)

	_, err = client.UploadPhoto(context.Background(), 1, models.PhotoUpload{Filename: "a.jpg"})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindRequest, reqErr.Kind)
}

func TestPhotoAndEventsURL(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.aponte.test/", time.Second)
	require.NoError(t, err)
	client.SetToken("a b")

	assert.Equal(t, "https://api.aponte.test/photos/4", client.PhotoURL(4, ""))
	assert.Equal(t, "https://api.aponte.test/photos/4?v=abc", client.PhotoURL(4, "abc"))

	eventsURL, err := client.EventsURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://api.aponte.test/ws?token=a+b", eventsURL)
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/jpeg", contentTypeFor("x.JPG"))
	assert.Equal(t, "image/jpeg", contentTypeFor("noext"))
	assert.Equal(t, "image/webp", contentTypeFor("a.webp"))
}
