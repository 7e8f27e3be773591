package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IConfigStore = (*ConfigStore)(nil)

type channelsDocument struct {
	Filtered   []string `json:"FILTERED_CHANNELS"`
	Unfiltered []string `json:"UNFILTERED_CHANNELS"`
}

type keywordsDocument struct {
	Keywords []string `json:"KEYWORDS"`
}

// ConfigStore owns the routing snapshot and its two JSON documents.
// Every mutation holds mu across check, persist and swap, so the snapshot in
// memory is never ahead of what is on disk.
type ConfigStore struct {
	mu           sync.RWMutex
	log          *slog.Logger
	channelsPath string
	keywordsPath string
	snapshot     domain.Snapshot
	writeFile    func(path string, data []byte) error
}

func NewConfigStore(log *slog.Logger, channelsPath, keywordsPath string) *ConfigStore {
	return &ConfigStore{
		log:          log,
		channelsPath: channelsPath,
		keywordsPath: keywordsPath,
		snapshot:     domain.EmptySnapshot(),
		writeFile:    writeFileAtomic,
	}
}

// Load reads both documents. A missing document is created empty right away;
// a malformed one is an error wrapping ErrMalformedDocument.
func (s *ConfigStore) Load() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var channels channelsDocument
	createdChannels, err := s.readDocument(s.channelsPath, &channels)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var keywords keywordsDocument
	createdKeywords, err := s.readDocument(s.keywordsPath, &keywords)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.NewSnapshot(
		toChannelIDs(channels.Filtered),
		toChannelIDs(channels.Unfiltered),
		keywords.Keywords,
	)
	if createdChannels {
		s.log.Warn("Channels file not found, starting with empty lists", "path", s.channelsPath)
		if err = s.PersistChannels(snapshot); err != nil {
			return domain.Snapshot{}, err
		}
	}
	if createdKeywords {
		s.log.Warn("Keywords file not found, starting with an empty list", "path", s.keywordsPath)
		if err = s.PersistKeywords(snapshot); err != nil {
			return domain.Snapshot{}, err
		}
	}

	s.snapshot = snapshot
	s.log.Info("Configuration loaded",
		"filtered", len(snapshot.Channels(domain.Filtered)),
		"unfiltered", len(snapshot.Channels(domain.Unfiltered)),
		"keywords", len(snapshot.Keywords()))
	return snapshot, nil
}

// readDocument reports missing=true when the file does not exist.
func (s *ConfigStore) readDocument(path string, into any) (missing bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err = json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("%w: %s: %v", relayerrors.ErrMalformedDocument, path, err)
	}
	return false, nil
}

func (s *ConfigStore) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// AddChannel returns false when the channel is already in the list.
func (s *ConfigStore) AddChannel(kind domain.ChannelKind, id domain.ChannelID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.HasChannel(kind, id) {
		return false, nil
	}
	return true, s.commitChannels(s.snapshot.WithChannel(kind, id))
}

// RemoveChannel returns false when the channel is not in the list.
func (s *ConfigStore) RemoveChannel(kind domain.ChannelKind, id domain.ChannelID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snapshot.HasChannel(kind, id) {
		return false, nil
	}
	return true, s.commitChannels(s.snapshot.WithoutChannel(kind, id))
}

func (s *ConfigStore) AddKeyword(keyword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.HasKeyword(keyword) {
		return false, nil
	}
	return true, s.commitKeywords(s.snapshot.WithKeyword(keyword))
}

func (s *ConfigStore) RemoveKeyword(keyword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snapshot.HasKeyword(keyword) {
		return false, nil
	}
	return true, s.commitKeywords(s.snapshot.WithoutKeyword(keyword))
}

// commitChannels must be called with mu held.
func (s *ConfigStore) commitChannels(next domain.Snapshot) error {
	if err := s.PersistChannels(next); err != nil {
		return err
	}
	s.snapshot = next
	return nil
}

// commitKeywords must be called with mu held.
func (s *ConfigStore) commitKeywords(next domain.Snapshot) error {
	if err := s.PersistKeywords(next); err != nil {
		return err
	}
	s.snapshot = next
	return nil
}

// PersistChannels rewrites channels.json in full.
func (s *ConfigStore) PersistChannels(snapshot domain.Snapshot) error {
	return s.persist(s.channelsPath, channelsDocument{
		Filtered:   fromChannelIDs(snapshot.Channels(domain.Filtered)),
		Unfiltered: fromChannelIDs(snapshot.Channels(domain.Unfiltered)),
	})
}

// PersistKeywords rewrites keywords.json in full.
func (s *ConfigStore) PersistKeywords(snapshot domain.Snapshot) error {
	keywords := snapshot.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	return s.persist(s.keywordsPath, keywordsDocument{Keywords: keywords})
}

func (s *ConfigStore) persist(path string, document any) error {
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return err
	}
	if err = s.writeFile(path, data); err != nil {
		return fmt.Errorf("persisting %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic writes into a temporary sibling then renames it over path,
// so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func toChannelIDs(ids []string) []domain.ChannelID {
	return lo.Map(ids, func(id string, _ int) domain.ChannelID {
		return domain.ChannelID(id)
	})
}

func fromChannelIDs(ids []domain.ChannelID) []string {
	out := lo.Map(ids, func(id domain.ChannelID, _ int) string {
		return string(id)
	})
	if out == nil {
		return []string{}
	}
	return out
}
