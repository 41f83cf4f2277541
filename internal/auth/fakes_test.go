package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryUsers is an in-memory UserRepository
type memoryUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*user.User
	findErr error
}

func newMemoryUsers(users ...*user.User) *memoryUsers {
	m := &memoryUsers{byID: map[uuid.UUID]*user.User{}}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m.byID[u.ID] = u
	}
	return m
}

func (m *memoryUsers) find(match func(*user.User) bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Username == username })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Email == email })
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, user.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return nil, user.ErrDuplicateUsername
		}
	}
	cp := *u
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memoryUsers) MarkConfirmed(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			u.Confirmed = true
			return nil
		}
	}
	return user.ErrNotFound
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memoryUsers) get(email string) *user.User {
	u, _ := m.FindByEmail(context.Background(), email)
	return u
}

type sentEmail struct {
	kind     string
	to       string
	username string
	token    string
}

// recordingMailer captures outgoing mail on a buffered channel
type recordingMailer struct {
	sent chan sentEmail
	err  error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan sentEmail, 8)}
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, toEmail, username, token string) error {
	m.sent <- sentEmail{kind: "verify", to: toEmail, username: username, token: token}
	return m.err
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, toEmail, username, token string) error {
	m.sent <- sentEmail{kind: "reset", to: toEmail, username: username, token: token}
	return m.err
}

func (m *recordingMailer) next() (sentEmail, error) {
	select {
	case e := <-m.sent:
		return e, nil
	case <-time.After(2 * time.Second):
		return sentEmail{}, errors.New("no email sent")
	}
}

func newTestCodec() *JWTCodec {
	codec, err := NewJWTCodec([]byte(testSecret))
	if err != nil {
		panic(err)
	}
	return codec
}

func newTestIssuer(codec Codec) *Issuer {
	return NewIssuer(codec, IssuerConfig{
		AccessTTL: 15 * time.Minute,
		EmailTTL:  24 * time.Hour,
		ResetTTL:  24 * time.Hour,
	})
}

// mustHash keeps fixtures short
func mustHash(password string) string {
	h, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}

// flipChar replaces the byte at i with a different base64url character
func flipChar(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// bumpChar replaces the byte at i with the next base64url character. For the
// last character of a segment this keeps the significant bits and only sets
// the unused trailing ones.
func bumpChar(s string, i int) string {
	b := []byte(s)
	j := strings.IndexByte(base64URLAlphabet, b[i])
	b[i] = base64URLAlphabet[(j+1)%len(base64URLAlphabet)]
	return string(b)
}
