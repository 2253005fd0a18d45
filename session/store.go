package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/goCare/codec"
)

// Store is the in-process view of the current credential, mirrored to a durable
// Storage. Reads never block on storage I/O; writers are serialized so the volatile
// and durable layers change in the same order.
type Store struct {
	writeMu sync.Mutex

	mu            sync.RWMutex
	current       Credential
	present       bool
	authenticated bool
	// cleared blocks Persisted and Hydrate after Clear until the next Set, so a
	// durable pair left behind by a failed delete is not reused.
	cleared bool

	storage Storage
	codec   *codec.Codec
	keys    Keys
}

// NewStore returns an empty Store. Zero-valued keys fall back to DefaultKeys.
func NewStore(storage Storage, c *codec.Codec, keys Keys) *Store {
	return &Store{
		storage: storage,
		codec:   c,
		keys:    keys.withDefaults(),
	}
}

// Keys returns the durable entry names in use.
func (s *Store) Keys() Keys {
	return s.keys
}

// Set replaces the current credential and mirrors its token and IV to durable storage
// in one write. On a storage failure the volatile state is left untouched.
func (s *Store) Set(ctx context.Context, cred Credential) error {
	if !cred.Complete() {
		return ErrIncompleteCredential
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Save(ctx, map[string]string{
		s.keys.Token: string(cred.Token),
		s.keys.IV:    cred.IV,
	}); err != nil {
		return storageErr(err)
	}

	s.mu.Lock()
	s.current = cred
	s.present = true
	s.authenticated = true
	s.cleared = false
	s.mu.Unlock()

	return nil
}

// Get returns the volatile credential. It never reads durable storage.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return Credential{}, false
	}
	return s.current, true
}

// Clear wipes the volatile credential and deletes both durable entries. Clear is
// idempotent. The volatile state is wiped even when the durable delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	s.mu.Lock()
	s.current = Credential{}
	s.present = false
	s.authenticated = false
	s.cleared = true
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.keys.Token, s.keys.IV); err != nil {
		return storageErr(err)
	}
	return nil
}

// IsAuthenticated reports whether a token is held and the authenticated flag was set
// by Set or a successful Hydrate.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present && s.authenticated && s.current.Token != ""
}

// Persisted returns the durable pair without touching volatile state. A missing half
// or a storage error counts as absent, and so does anything read after Clear until
// the next Set.
func (s *Store) Persisted(ctx context.Context) (Credential, bool) {
	s.mu.RLock()
	cleared := s.cleared
	s.mu.RUnlock()
	if cleared {
		return Credential{}, false
	}

	cred, err := s.load(ctx)
	if err != nil {
		return Credential{}, false
	}
	return cred, true
}

// Hydrate restores the volatile credential from durable storage.
//
// Hydrate returns false with a nil error when no complete pair is stored. When the
// stored pair cannot be decrypted or decoded both layers are cleared and the codec
// error is returned; the store is left empty and unauthenticated. A storage read
// failure is returned without clearing anything. After Clear, Hydrate restores
// nothing until the next Set.
func (s *Store) Hydrate(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	cleared := s.cleared
	s.mu.RUnlock()
	if cleared {
		return false, nil
	}

	cred, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return false, nil
		}
		return false, err
	}

	_, claims, err := s.codec.Open(cred.Token, cred.IV)
	if err != nil {
		if clearErr := s.clearLocked(ctx); clearErr != nil {
			return false, errors.Join(err, clearErr)
		}
		return false, err
	}
	cred.Claims = claims

	s.mu.Lock()
	s.current = cred
	s.present = true
	s.authenticated = true
	s.mu.Unlock()

	return true, nil
}

func (s *Store) load(ctx context.Context) (Credential, error) {
	entries, err := s.storage.Load(ctx, s.keys.Token, s.keys.IV)
	if err != nil {
		return Credential{}, storageErr(err)
	}
	cred := Credential{
		Token: codec.SealedToken(entries[s.keys.Token]),
		IV:    entries[s.keys.IV],
	}
	if !cred.Complete() {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}

func storageErr(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
