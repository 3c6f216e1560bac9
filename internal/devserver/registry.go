package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"signet/internal/domain"
)

var (
	errUserExists   = errors.New("username already registered")
	errUnknownUser  = errors.New("unknown user")
	errNoChallenge  = errors.New("no outstanding challenge")
	errChallengeOld = errors.New("challenge expired")
)

// UserRecord is what the server returns for a registered user.
type UserRecord struct {
	ID          string             `json:"id"`
	Username    domain.Username    `json:"username"`
	PublicKey   string             `json:"publicKey"`
	Fingerprint domain.Fingerprint `json:"fingerprint"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type challenge struct {
	token   string
	expires time.Time
}

// registry holds users and their outstanding challenges.
type registry struct {
	mu         sync.Mutex
	users      map[domain.Username]UserRecord
	challenges map[domain.Username]challenge
	ttl        time.Duration
	now        func() time.Time
}

func newRegistry(ttl time.Duration, now func() time.Time) *registry {
	return &registry{
		users:      make(map[domain.Username]UserRecord),
		challenges: make(map[domain.Username]challenge),
		ttl:        ttl,
		now:        now,
	}
}

func (r *registry) add(username domain.Username, publicKey string, fp domain.Fingerprint) (UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return UserRecord{}, errUserExists
	}
	rec := UserRecord{
		ID:          uuid.NewString(),
		Username:    username,
		PublicKey:   publicKey,
		Fingerprint: fp,
		CreatedAt:   r.now().UTC(),
	}
	r.users[username] = rec
	return rec, nil
}

func (r *registry) lookup(username domain.Username) (UserRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.users[username]
	return rec, ok
}

// issueChallenge replaces any outstanding challenge for username.
func (r *registry) issueChallenge(username domain.Username) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return "", errUnknownUser
	}
	tok := uuid.NewString()
	r.challenges[username] = challenge{token: tok, expires: r.now().Add(r.ttl)}
	return tok, nil
}

// takeChallenge consumes the outstanding challenge for username.
func (r *registry) takeChallenge(username domain.Username) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[username]
	if !ok {
		return "", errNoChallenge
	}
	delete(r.challenges, username)
	if r.now().After(c.expires) {
		return "", errChallengeOld
	}
	return c.token, nil
}
