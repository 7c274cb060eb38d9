package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"aponte/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResult is the account created by Register
type RegisterResult struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Register creates an account
func (c *Client) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	var out RegisterResult
	if _, err := c.doJSON(ctx, "register", http.MethodPost, "/api/auth/register", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session. It does not change the client token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var out models.Session
	if _, err := c.doJSON(ctx, "login", http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if !out.Valid() {
		return nil, &RequestError{Op: "login", Kind: KindDecode, Err: errors.New("login response is missing token or user id")}
	}
	return &out, nil
}

// GetProfile fetches the profile owned by userID
func (c *Client) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var out models.Profile
	if _, err := c.doJSON(ctx, "get profile", http.MethodGet, profilePath(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile writes the text fields of the profile owned by userID
func (c *Client) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error) {
	var out models.Profile
	if _, err := c.doJSON(ctx, "update profile", http.MethodPut, profilePath(userID), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TodayMatch returns today's match, or nil when there is none
func (c *Client) TodayMatch(ctx context.Context) (*models.MatchOfTheDay, error) {
	var out models.MatchOfTheDay
	status, err := c.doJSON(ctx, "get today's match", http.MethodGet, "/api/matches/today", nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

// ListMessages fetches the full message list of one match
func (c *Client) ListMessages(ctx context.Context, matchID int64) ([]models.Message, error) {
	var out []models.Message
	if _, err := c.doJSON(ctx, "list messages", http.MethodGet, messagesPath(matchID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts text to a match
func (c *Client) SendMessage(ctx context.Context, matchID int64, text string) (*models.Message, error) {
	var out models.Message
	body := map[string]string{"text": text}
	if _, err := c.doJSON(ctx, "send message", http.MethodPost, messagesPath(matchID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto submits photo as the picture of profileID and returns its URL.
// The multipart encoding stays inside this method.
func (c *Client) UploadPhoto(ctx context.Context, profileID int64, photo models.PhotoUpload) (string, error) {
	if photo.Body == nil {
		return "", &RequestError{Op: "upload photo", Kind: KindRequest, Err: errors.New("photo body is empty")}
	}

	body, contentType, err := encodePhoto(profileID, photo)
	if err != nil {
		return "", &RequestError{Op: "upload photo", Kind: KindRequest, Err: err}
	}

	status, raw, err := c.do(ctx, "upload photo", http.MethodPost, "/photos/upload", body, contentType)
	if err != nil {
		return "", err
	}

	var out struct {
		PhotoURL string `json:"photoUrl"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", &RequestError{Op: "upload photo", Kind: KindDecode, StatusCode: status, Err: err}
		}
	}
	return out.PhotoURL, nil
}

// DeletePhoto removes the picture of profileID
func (c *Client) DeletePhoto(ctx context.Context, profileID int64) error {
	_, err := c.doJSON(ctx, "delete photo", http.MethodDelete, photoPath(profileID), nil, nil)
	return err
}

// PhotoURL builds the fetch URL for a profile picture. A non-empty cacheBust
// forces clients to refetch instead of reusing a cached image.
func (c *Client) PhotoURL(profileID int64, cacheBust string) string {
	u := c.baseURL + photoPath(profileID)
	if cacheBust != "" {
		u += "?v=" + url.QueryEscape(cacheBust)
	}
	return u
}

// RegisterPushToken stores the device token used for new-message pushes
func (c *Client) RegisterPushToken(ctx context.Context, pushToken string) error {
	body := map[string]string{"pushToken": pushToken}
	_, err := c.doJSON(ctx, "register push token", http.MethodPut, "/api/users/me/push-token", body, nil)
	return err
}

// EventsURL returns the websocket URL for realtime events of the current token
func (c *Client) EventsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": []string{c.Token()}}.Encode()
	return u.String(), nil
}

func encodePhoto(profileID int64, photo models.PhotoUpload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("profileId", strconv.FormatInt(profileID, 10)); err != nil {
		return nil, "", fmt.Errorf("write profileId field: %w", err)
	}

	filename := photo.Filename
	if filename == "" {
		filename = "profile.jpg"
	}
	contentType := photo.ContentType
	if contentType == "" {
		contentType = contentTypeFor(filename)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, photo.Body); err != nil {
		return nil, "", fmt.Errorf("copy photo body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// contentTypeFor guesses image/<ext> from the filename, defaulting to jpeg
func contentTypeFor(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "":
		return "image/jpeg"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func profilePath(userID int64) string {
	return "/api/profiles/user/" + strconv.FormatInt(userID, 10)
}

func messagesPath(matchID int64) string {
	return "/api/matches/" + strconv.FormatInt(matchID, 10) + "/messages"
}

func photoPath(profileID int64) string {
	return "/photos/" + strconv.FormatInt(profileID, 10)
}
