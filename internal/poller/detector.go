package poller

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"aponte/internal/models"
)

// ChangeDetector decides whether a fetched message list replaces the held one
type ChangeDetector interface {
	Changed(held, fetched []models.Message) bool
}

// LengthDetector only compares list lengths. Same-count edits or replacements
// go unnoticed; kept for parity with older clients.
type LengthDetector struct{}

func (LengthDetector) Changed(held, fetched []models.Message) bool {
	return len(held) != len(fetched)
}

// FingerprintDetector compares count, newest message and a hash of every
// message's id, timestamp and text.
type FingerprintDetector struct{}

func (FingerprintDetector) Changed(held, fetched []models.Message) bool {
	if len(held) != len(fetched) {
		return true
	}
	if len(held) == 0 {
		return false
	}
	lastHeld, lastFetched := held[len(held)-1], fetched[len(fetched)-1]
	if lastHeld.ID != lastFetched.ID || !lastHeld.CreatedAt.Equal(lastFetched.CreatedAt) {
		return true
	}
	return Fingerprint(held) != Fingerprint(fetched)
}

// Fingerprint hashes the observable content of a message list
func Fingerprint(messages []models.Message) [sha256.Size]byte {
	h := sha256.New()
	var buf [8]byte
	for _, m := range messages {
		binary.BigEndian.PutUint64(buf[:], uint64(m.ID))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(m.CreatedAt.UnixNano()))
		h.Write(buf[:])
		h.Write([]byte(m.Text))
		h.Write([]byte{0})
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// DetectorFor maps the poll.change_detection setting to a detector
func DetectorFor(name string) ChangeDetector {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "length":
		return LengthDetector{}
	default:
		return FingerprintDetector{}
	}
}
