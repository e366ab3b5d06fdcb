package authcore

import (
	"context"
	"strings"
	"sync"
)

// testStore is an in-package Store for the engine tests. The external
// memstore package cannot back them: it imports this package, and an
// in-package test file importing it would close the cycle.
type testStore struct {
	mu sync.RWMutex

	principals      map[string]*PrincipalRecord
	principalsEmail map[string]string

	credentials     map[string]*CredentialRecord
	credentialsHash map[string]string

	sessions     map[string]*SessionRecord
	sessionsHash map[string]string

	tokens     map[string]*SecurityTokenRecord
	tokensHash map[string]string
}

func newTestStore() *testStore {
	return &testStore{
		principals:      make(map[string]*PrincipalRecord),
		principalsEmail: make(map[string]string),
		credentials:     make(map[string]*CredentialRecord),
		credentialsHash: make(map[string]string),
		sessions:        make(map[string]*SessionRecord),
		sessionsHash:    make(map[string]string),
		tokens:          make(map[string]*SecurityTokenRecord),
		tokensHash:      make(map[string]string),
	}
}

func (s *testStore) GetPrincipalByID(_ context.Context, id string) (*PrincipalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.principals[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *record
	return &out, nil
}

func (s *testStore) GetPrincipalByEmail(_ context.Context, email string) (*PrincipalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.principalsEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *s.principals[id]
	return &out, nil
}

func (s *testStore) CreatePrincipal(_ context.Context, record *PrincipalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principalsEmail[strings.ToLower(record.Email)]; ok {
		return ErrEmailExists
	}
	stored := *record
	s.principals[record.ID] = &stored
	s.principalsEmail[strings.ToLower(record.Email)] = record.ID
	return nil
}

func (s *testStore) UpdatePrincipal(_ context.Context, record *PrincipalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.principals[record.ID]
	if !ok {
		return ErrRecordNotFound
	}
	if old.Email != record.Email {
		delete(s.principalsEmail, strings.ToLower(old.Email))
		s.principalsEmail[strings.ToLower(record.Email)] = record.ID
	}
	stored := *record
	s.principals[record.ID] = &stored
	return nil
}

func (s *testStore) DeletePrincipal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.principals[id]
	if !ok {
		return ErrRecordNotFound
	}
	delete(s.principalsEmail, strings.ToLower(record.Email))
	delete(s.principals, id)
	return nil
}

func (s *testStore) GetCredentialByHash(_ context.Context, hash string) (*CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.credentialsHash[hash]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *s.credentials[id]
	return &out, nil
}

func (s *testStore) GetCredentialByID(_ context.Context, id string) (*CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.credentials[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *record
	return &out, nil
}

func (s *testStore) CreateCredential(_ context.Context, record *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.credentials[record.ID] = &stored
	s.credentialsHash[record.SecretHash] = record.ID
	return nil
}

func (s *testStore) UpdateCredential(_ context.Context, record *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.credentials[record.ID]
	if !ok {
		return ErrRecordNotFound
	}
	if old.SecretHash != record.SecretHash {
		delete(s.credentialsHash, old.SecretHash)
		s.credentialsHash[record.SecretHash] = record.ID
	}
	stored := *record
	s.credentials[record.ID] = &stored
	return nil
}

func (s *testStore) GetSessionByHash(_ context.Context, hash string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessionsHash[hash]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *s.sessions[id]
	return &out, nil
}

func (s *testStore) CreateSession(_ context.Context, record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.sessions[record.ID] = &stored
	s.sessionsHash[record.RefreshHash] = record.ID
	return nil
}

func (s *testStore) UpdateSession(_ context.Context, record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[record.ID]; !ok {
		return ErrRecordNotFound
	}
	stored := *record
	s.sessions[record.ID] = &stored
	return nil
}

func (s *testStore) GetSecurityTokenByHash(_ context.Context, hash string) (*SecurityTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokensHash[hash]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *s.tokens[id]
	return &out, nil
}

func (s *testStore) CreateSecurityToken(_ context.Context, record *SecurityTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.tokens[record.ID] = &stored
	s.tokensHash[record.TokenHash] = record.ID
	return nil
}

func (s *testStore) UpdateSecurityToken(_ context.Context, record *SecurityTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[record.ID]; !ok {
		return ErrRecordNotFound
	}
	stored := *record
	s.tokens[record.ID] = &stored
	return nil
}

var _ Store = (*testStore)(nil)
