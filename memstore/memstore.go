// Package memstore is a mutex-guarded in-memory Store implementation.
// It backs the test suite and small single-process deployments; anything
// multi-instance needs a database-backed Store.
package memstore

import (
	"context"
	"strings"
	"sync"

	authcore "github.com/appshots/authcore"
)

// Store keeps all records in maps with secondary indexes on email,
// credential secret hash, and refresh hash. Reads return copies so
// callers never alias internal state.
type Store struct {
	mu sync.RWMutex

	principals      map[string]*authcore.PrincipalRecord
	principalsEmail map[string]string

	credentials     map[string]*authcore.CredentialRecord
	credentialsHash map[string]string

	sessions     map[string]*authcore.SessionRecord
	sessionsHash map[string]string

	tokens     map[string]*authcore.SecurityTokenRecord
	tokensHash map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		principals:      make(map[string]*authcore.PrincipalRecord),
		principalsEmail: make(map[string]string),
		credentials:     make(map[string]*authcore.CredentialRecord),
		credentialsHash: make(map[string]string),
		sessions:        make(map[string]*authcore.SessionRecord),
		sessionsHash:    make(map[string]string),
		tokens:          make(map[string]*authcore.SecurityTokenRecord),
		tokensHash:      make(map[string]string),
	}
}

func (s *Store) GetPrincipalByID(_ context.Context, id string) (*authcore.PrincipalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.principals[id]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *record
	return &out, nil
}

func (s *Store) GetPrincipalByEmail(_ context.Context, email string) (*authcore.PrincipalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.principalsEmail[strings.ToLower(email)]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *s.principals[id]
	return &out, nil
}

func (s *Store) CreatePrincipal(_ context.Context, record *authcore.PrincipalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principalsEmail[strings.ToLower(record.Email)]; ok {
		return authcore.ErrEmailExists
	}
	stored := *record
	s.principals[record.ID] = &stored
	s.principalsEmail[strings.ToLower(record.Email)] = record.ID
	return nil
}

func (s *Store) UpdatePrincipal(_ context.Context, record *authcore.PrincipalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.principals[record.ID]
	if !ok {
		return authcore.ErrRecordNotFound
	}
	if old.Email != record.Email {
		delete(s.principalsEmail, strings.ToLower(old.Email))
		s.principalsEmail[strings.ToLower(record.Email)] = record.ID
	}
	stored := *record
	s.principals[record.ID] = &stored
	return nil
}

// DeletePrincipal removes an account outright. Not part of the engine's
// store contract; exists for tests and admin tooling.
func (s *Store) DeletePrincipal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.principals[id]
	if !ok {
		return authcore.ErrRecordNotFound
	}
	delete(s.principalsEmail, strings.ToLower(record.Email))
	delete(s.principals, id)
	return nil
}

func (s *Store) GetCredentialByHash(_ context.Context, hash string) (*authcore.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.credentialsHash[hash]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *s.credentials[id]
	return &out, nil
}

func (s *Store) GetCredentialByID(_ context.Context, id string) (*authcore.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.credentials[id]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *record
	return &out, nil
}

func (s *Store) CreateCredential(_ context.Context, record *authcore.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.credentials[record.ID] = &stored
	s.credentialsHash[record.SecretHash] = record.ID
	return nil
}

func (s *Store) UpdateCredential(_ context.Context, record *authcore.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.credentials[record.ID]
	if !ok {
		return authcore.ErrRecordNotFound
	}
	if old.SecretHash != record.SecretHash {
		delete(s.credentialsHash, old.SecretHash)
		s.credentialsHash[record.SecretHash] = record.ID
	}
	stored := *record
	s.credentials[record.ID] = &stored
	return nil
}

func (s *Store) GetSessionByHash(_ context.Context, hash string) (*authcore.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessionsHash[hash]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *s.sessions[id]
	return &out, nil
}

func (s *Store) CreateSession(_ context.Context, record *authcore.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.sessions[record.ID] = &stored
	s.sessionsHash[record.RefreshHash] = record.ID
	return nil
}

func (s *Store) UpdateSession(_ context.Context, record *authcore.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[record.ID]; !ok {
		return authcore.ErrRecordNotFound
	}
	stored := *record
	s.sessions[record.ID] = &stored
	return nil
}

func (s *Store) GetSecurityTokenByHash(_ context.Context, hash string) (*authcore.SecurityTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokensHash[hash]
	if !ok {
		return nil, authcore.ErrRecordNotFound
	}
	out := *s.tokens[id]
	return &out, nil
}

func (s *Store) CreateSecurityToken(_ context.Context, record *authcore.SecurityTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.tokens[record.ID] = &stored
	s.tokensHash[record.TokenHash] = record.ID
	return nil
}

func (s *Store) UpdateSecurityToken(_ context.Context, record *authcore.SecurityTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[record.ID]; !ok {
		return authcore.ErrRecordNotFound
	}
	stored := *record
	s.tokens[record.ID] = &stored
	return nil
}

var _ authcore.Store = (*Store)(nil)
