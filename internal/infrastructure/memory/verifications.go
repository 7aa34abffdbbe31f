package memory

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/otp"
)

// DefaultCodeTTL is how long an issued code stays valid.
const DefaultCodeTTL = 10 * time.Minute

// DefaultMaxAttempts is how many wrong submissions a code survives before it is revoked.
const DefaultMaxAttempts = 5

type codeState struct {
	code      string
	issuedAt  time.Time
	confirmed bool
	misses    int
}

// VerificationStore keeps short-lived one-time codes, one namespace per purpose, plus
// the candidate profiles of registrations awaiting verification. It is process-local:
// nothing survives a restart.
type VerificationStore struct {
	codes       map[domain.Purpose]*ExpiringMap[codeState]
	pending     *ExpiringMap[domain.PendingRegistration]
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func() (string, error)
}

type Option func(*VerificationStore)

// WithTTL overrides DefaultCodeTTL. Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(s *VerificationStore) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Non-positive values are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *VerificationStore) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *VerificationStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator replaces the code generator, mainly for tests.
func WithGenerator(gen func() (string, error)) Option {
	return func(s *VerificationStore) {
		if gen != nil {
			s.generate = gen
		}
	}
}

func NewVerificationStore(opts ...Option) *VerificationStore {
	s := &VerificationStore{
		ttl:         DefaultCodeTTL,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		generate:    otp.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codes = make(map[domain.Purpose]*ExpiringMap[codeState], len(domain.Purposes))
	for _, p := range domain.Purposes {
		s.codes[p] = NewExpiringMap[codeState](s.now)
	}
	s.pending = NewExpiringMap[domain.PendingRegistration](s.now)
	return s
}

// TTL returns the validity window applied to new codes.
func (s *VerificationStore) TTL() time.Duration { return s.ttl }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sameCode(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// GenerateCode returns a fresh 6-digit code without storing it.
func (s *VerificationStore) GenerateCode() (string, error) {
	return s.generate()
}

// IssueCode generates a code for (purpose, email), replacing any code already held there.
func (s *VerificationStore) IssueCode(purpose domain.Purpose, email string) (string, error) {
	m, ok := s.codes[purpose]
	if !ok {
		return "", fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	key := normalizeEmail(email)
	expiresAt := m.Set(key, codeState{code: code, issuedAt: s.now()}, s.ttl)
	slog.Info("verification code issued", "purpose", purpose, "email", key, "expires_at", expiresAt)
	return code, nil
}

// ResendCode replaces the code for (purpose, email) with a new one. Once it returns,
// the previous code no longer verifies.
func (s *VerificationStore) ResendCode(purpose domain.Purpose, email string) (string, error) {
	code, err := s.IssueCode(purpose, email)
	if err != nil {
		return "", err
	}
	slog.Info("verification code resent", "purpose", purpose, "email", normalizeEmail(email))
	return code, nil
}

// VerifyCode reports whether submitted matches the live code for (purpose, email).
// An expired code is evicted. A successful match leaves the code in place. Each
// mismatch counts against the code, which is revoked once the attempt limit is hit.
func (s *VerificationStore) VerifyCode(purpose domain.Purpose, email, submitted string) bool {
	if !s.check(purpose, email, submitted, false) {
		return false
	}
	slog.Info("verification code verified", "purpose", purpose, "email", normalizeEmail(email))
	return true
}

// ConfirmCode behaves like VerifyCode and, on a match, marks the code as proven so a
// later step can rely on IsConfirmed instead of the mere presence of a code.
func (s *VerificationStore) ConfirmCode(purpose domain.Purpose, email, submitted string) bool {
	if !s.check(purpose, email, submitted, true) {
		return false
	}
	slog.Info("verification code confirmed", "purpose", purpose, "email", normalizeEmail(email))
	return true
}

func (s *VerificationStore) check(purpose domain.Purpose, email, submitted string, confirm bool) bool {
	m, ok := s.codes[purpose]
	if !ok {
		return false
	}
	key := normalizeEmail(email)
	matched, revoked := false, false
	st := m.Apply(key, func(c codeState) (codeState, Op) {
		if sameCode(c.code, submitted) {
			matched = true
			if confirm && !c.confirmed {
				c.confirmed = true
				return c, OpStore
			}
			return c, OpKeep
		}
		c.misses++
		if c.misses >= s.maxAttempts {
			revoked = true
			return c, OpDelete
		}
		return c, OpStore
	})
	switch {
	case st == EntryMissing:
		slog.Warn("no verification code found", "purpose", purpose, "email", key)
	case st == EntryExpired:
		slog.Warn("verification code expired", "purpose", purpose, "email", key)
	case revoked:
		slog.Warn("verification code revoked after too many attempts", "purpose", purpose, "email", key, "max_attempts", s.maxAttempts)
	case !matched:
		slog.Warn("verification code mismatch", "purpose", purpose, "email", key)
	}
	return matched
}

// IsConfirmed reports whether a live code exists for (purpose, email) and has been confirmed.
func (s *VerificationStore) IsConfirmed(purpose domain.Purpose, email string) bool {
	c, ok := s.Code(purpose, email)
	return ok && c.Confirmed
}

// HasCode reports whether a live code exists for (purpose, email).
func (s *VerificationStore) HasCode(purpose domain.Purpose, email string) bool {
	m, ok := s.codes[purpose]
	if !ok {
		return false
	}
	return m.Has(normalizeEmail(email))
}

// Code returns a snapshot of the live code for (purpose, email).
func (s *VerificationStore) Code(purpose domain.Purpose, email string) (domain.VerificationCode, bool) {
	m, ok := s.codes[purpose]
	if !ok {
		return domain.VerificationCode{}, false
	}
	key := normalizeEmail(email)
	e, st := m.Get(key)
	if st != EntryLive {
		return domain.VerificationCode{}, false
	}
	return domain.VerificationCode{
		Purpose:   purpose,
		Email:     key,
		Code:      e.Value.code,
		IssuedAt:  e.Value.issuedAt,
		ExpiresAt: e.ExpiresAt,
		Confirmed: e.Value.confirmed,
	}, true
}

// RemoveCode deletes the code for (purpose, email). Removing an absent code is a no-op.
func (s *VerificationStore) RemoveCode(purpose domain.Purpose, email string) {
	m, ok := s.codes[purpose]
	if !ok {
		return
	}
	m.Delete(normalizeEmail(email))
}

// StagePendingRegistration stores the candidate profile for email, overwriting any earlier one.
// Pending registrations do not expire on their own; Sweep reclaims abandoned ones.
func (s *VerificationStore) StagePendingRegistration(email string, p domain.PendingRegistration) {
	key := normalizeEmail(email)
	if p.StagedAt.IsZero() {
		p.StagedAt = s.now()
	}
	s.pending.Set(key, p, 0)
}

func (s *VerificationStore) FetchPendingRegistration(email string) (domain.PendingRegistration, bool) {
	e, st := s.pending.Get(normalizeEmail(email))
	return e.Value, st == EntryLive
}

// TakePendingRegistration removes and returns the candidate profile for email. When
// several callers race, only one of them gets the profile.
func (s *VerificationStore) TakePendingRegistration(email string) (domain.PendingRegistration, bool) {
	e, st := s.pending.Take(normalizeEmail(email))
	return e.Value, st == EntryLive
}

// RestorePendingRegistration puts back a profile obtained from TakePendingRegistration
// unless a newer registration has been staged for email in the meantime.
func (s *VerificationStore) RestorePendingRegistration(email string, p domain.PendingRegistration) bool {
	return s.pending.SetIfAbsent(normalizeEmail(email), p, 0)
}

func (s *VerificationStore) DiscardPendingRegistration(email string) {
	s.pending.Delete(normalizeEmail(email))
}

// Sweep evicts expired codes, then pending registrations that were staged longer than
// one code TTL ago and no longer have a registration code. It reports the number of
// entries removed.
func (s *VerificationStore) Sweep() int {
	n := 0
	for _, m := range s.codes {
		n += m.Sweep()
	}
	reg := s.codes[domain.PurposeRegistration]
	cutoff := s.now().Add(-s.ttl)
	n += s.pending.DeleteFunc(func(key string, p domain.PendingRegistration) bool {
		return p.StagedAt.Before(cutoff) && !reg.Has(key)
	})
	return n
}
