package models

import (
	"io"
	"time"
)

// Session is the locally stored credential pair. It is only valid when both
// halves are present.
type Session struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

// Valid reports whether both the token and the user id are present
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.UserID > 0
}

// User represents an account on the backend
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PushToken    *string   `json:"pushToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile represents the public profile owned by a user
type Profile struct {
	ID           int64    `json:"id"`
	UserID       int64    `json:"userId"`
	Name         string   `json:"name"`
	BirthDate    string   `json:"birthDate"`
	Bio          string   `json:"bio"`
	LastLocation string   `json:"lastLocation"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	// PhotoKey is the storage object key, never sent to clients
	PhotoKey string `json:"-"`
}

// ProfileUpdate carries the text fields written by a profile update
type ProfileUpdate struct {
	Name         string   `json:"name"`
	BirthDate    string   `json:"birthDate"`
	Bio          string   `json:"bio"`
	LastLocation string   `json:"lastLocation"`
	Interests    []string `json:"interests,omitempty"`
}

// MatchOfTheDay is the server-assigned daily pairing seen from one side
type MatchOfTheDay struct {
	ID             int64     `json:"id"`
	MatchedProfile Profile   `json:"matchedProfile"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Match is the stored pairing between two users
type Match struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"userAId"`
	UserBID   int64     `json:"userBId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PartnerOf returns the other member of the match, or 0 if userID is not a member
func (m *Match) PartnerOf(userID int64) int64 {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	default:
		return 0
	}
}

// Message is a chat message inside one match
type Message struct {
	ID         int64     `json:"id"`
	MatchID    int64     `json:"matchId"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PhotoUpload is a named, typed byte stream submitted as a profile photo
type PhotoUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// PhotoChangeKind tells what the user did to the profile photo
type PhotoChangeKind int

const (
	PhotoUnchanged PhotoChangeKind = iota
	PhotoCleared
	PhotoReplaced
)

// PhotoChange is set by user action in the profile editor. The zero value is
// PhotoUnchanged.
type PhotoChange struct {
	Kind   PhotoChangeKind
	Upload *PhotoUpload
}

// KeepPhoto leaves the current photo as is
func KeepPhoto() PhotoChange {
	return PhotoChange{Kind: PhotoUnchanged}
}

// ClearPhoto removes the current photo
func ClearPhoto() PhotoChange {
	return PhotoChange{Kind: PhotoCleared}
}

// ReplacePhoto swaps the current photo for upload
func ReplacePhoto(upload PhotoUpload) PhotoChange {
	return PhotoChange{Kind: PhotoReplaced, Upload: &upload}
}
