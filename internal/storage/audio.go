package storage

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// AudioStore holds synthesized speech clips on disk under the data path,
// bucketed per owner. Clips are transient request artifacts, not history: a
// sweep or restart may drop them without losing any persisted record.
type AudioStore struct {
	basePath string
}

func NewAudioStore(basePath string) (*AudioStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create audio path: %w", err)
	}
	return &AudioStore{basePath: basePath}, nil
}

// Save writes one MP3 clip for the given owner and returns its opaque id.
func (s *AudioStore) Save(owner string, data []byte) (string, error) {
	dir := filepath.Join(s.basePath, ownerDir(owner))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(dir, id+".mp3"), data, 0644); err != nil {
		return "", err
	}
	return id, nil
}

// Path resolves a clip id to its file path for the owner who saved it. Ids
// are validated as UUIDs and the owner segment is a digest, so neither a
// crafted id nor a crafted username can escape the audio directory; another
// user's id simply resolves to a missing file.
func (s *AudioStore) Path(owner, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", os.ErrPermission
	}
	p := filepath.Join(s.basePath, ownerDir(owner), id+".mp3")
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

// Sweep removes clips older than maxAge and returns how many were deleted.
func (s *AudioStore) Sweep(maxAge time.Duration) (int, error) {
	owners, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		dir := filepath.Join(s.basePath, owner.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if os.Remove(filepath.Join(dir, entry.Name())) == nil {
					removed++
				}
			}
		}
	}
	return removed, nil
}

func ownerDir(owner string) string {
	h := sha256.Sum256([]byte(owner))
	return fmt.Sprintf("%x", h[:8])
}
