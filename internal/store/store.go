// Package store provides thread-safe persistence for chat subscription
// preferences: which Telegram chats receive the daily market update and at
// which local hour. This is the only durable state in the system; market
// data itself is never persisted.
//
// Writes are atomic (temp file then rename) so a crash mid-save never leaves
// a truncated file behind. Legacy file formats from earlier deployments, a
// bare list of chat IDs or a string-keyed {"hour": N} object, are migrated
// transparently on load.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

// DefaultHour is the update hour assigned to new subscriptions.
const DefaultHour = 8

// Subscription records one chat's daily update preference.
type Subscription struct {
	ChatID int64 `json:"chat_id"`
	Hour   int   `json:"hour"` // local hour in [0,23]
}

// Store is a thread-safe map of chat ID to preference, persisted to a JSON file.
// Every mutation saves immediately; the data set is a handful of chats.
type Store struct {
	mu          sync.RWMutex
	subs        map[int64]Subscription
	filePath    string
	filePerm    os.FileMode
	dirPerm     os.FileMode
	defaultHour int
}

// persistenceFile is the on-disk structure for JSON persistence.
type persistenceFile struct {
	Version       string                 `json:"version"`
	SavedAt       time.Time              `json:"saved_at"`
	Subscriptions map[int64]Subscription `json:"subscriptions"`
}

// New creates a Store persisting to filePath. If filePath is empty, an
// OS-appropriate tmp location is used.
func New(filePath string) *Store {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "kalshipulse", "subscriptions.json")
	}
	return &Store{
		subs:        make(map[int64]Subscription),
		filePath:    filePath,
		filePerm:    0o644,
		dirPerm:     0o755,
		defaultHour: DefaultHour,
	}
}

// WithDefaultHour overrides the hour assigned to new subscriptions.
// Out-of-range values are ignored.
func (s *Store) WithDefaultHour(hour int) *Store {
	if hour >= 0 && hour <= 23 {
		s.defaultHour = hour
	}
	return s
}

// Subscribe adds a chat with the default hour. Returns false when the chat
// was already subscribed (its preference is left untouched).
func (s *Store) Subscribe(chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[chatID]; exists {
		return false, nil
	}
	s.subs[chatID] = Subscription{ChatID: chatID, Hour: s.defaultHour}
	return true, s.saveLocked()
}

// Unsubscribe removes a chat. Returns false when the chat was not subscribed.
func (s *Store) Unsubscribe(chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[chatID]; !exists {
		return false, nil
	}
	delete(s.subs, chatID)
	return true, s.saveLocked()
}

// SetHour updates a subscribed chat's preferred update hour.
func (s *Store) SetHour(chatID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour must be in [0,23], got %d", hour)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subs[chatID]
	if !exists {
		return fmt.Errorf("chat %d is not subscribed", chatID)
	}
	sub.Hour = hour
	s.subs[chatID] = sub
	return s.saveLocked()
}

// Get returns a chat's subscription, if any.
func (s *Store) Get(chatID int64) (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subs[chatID]
	return sub, exists
}

// ChatsForHour returns the IDs of all chats subscribed for the given hour,
// sorted ascending so batch sends are deterministic.
func (s *Store) ChatsForHour(hour int) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chats []int64
	for id, sub := range s.subs {
		if sub.Hour == hour {
			chats = append(chats, id)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats
}

// Count returns the number of subscribed chats.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Save persists the current state to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked writes the persistence file. Callers must hold at least a read lock.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), s.dirPerm); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data := persistenceFile{
		Version:       "1.0",
		SavedAt:       time.Now(),
		Subscriptions: s.subs,
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscriptions: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, s.filePerm); err != nil {
		return fmt.Errorf("write subscriptions file: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename subscriptions file: %w", err)
	}
	return nil
}

// Load restores state from disk, migrating legacy formats when found.
// A missing file is not an error; the store starts empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp file from a previous crash.
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	jsonData, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read subscriptions file: %w", err)
	}

	var data persistenceFile
	if err := json.Unmarshal(jsonData, &data); err == nil && data.Version != "" {
		s.subs = make(map[int64]Subscription, len(data.Subscriptions))
		for id, sub := range data.Subscriptions {
			sub.ChatID = id
			s.subs[id] = sub
		}
		return nil
	}

	subs, err := migrateLegacy(jsonData)
	if err != nil {
		return err
	}
	s.subs = subs
	return nil
}

// migrateLegacy parses the two historical file layouts: a bare JSON array of
// chat IDs, and a string-keyed object of {"hour": N} records.
func migrateLegacy(jsonData []byte) (map[int64]Subscription, error) {
	var legacyList []int64
	if err := json.Unmarshal(jsonData, &legacyList); err == nil {
		subs := make(map[int64]Subscription, len(legacyList))
		for _, id := range legacyList {
			subs[id] = Subscription{ChatID: id, Hour: DefaultHour}
		}
		return subs, nil
	}

	var legacyMap map[string]struct {
		Hour *int `json:"hour"`
	}
	if err := json.Unmarshal(jsonData, &legacyMap); err == nil {
		subs := make(map[int64]Subscription, len(legacyMap))
		for key, rec := range legacyMap {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("legacy subscription key %q is not a chat ID", key)
			}
			hour := DefaultHour
			if rec.Hour != nil && *rec.Hour >= 0 && *rec.Hour <= 23 {
				hour = *rec.Hour
			}
			subs[id] = Subscription{ChatID: id, Hour: hour}
		}
		return subs, nil
	}

	return nil, errors.New("unrecognized subscriptions file format")
}
