package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spendsmart-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence yields 100000, 100001, ... so consecutive codes never collide.
func sequence() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("%06d", 100000+n.Add(1)-1), nil
	}
}

func newTestStore(clk *fakeClock) *VerificationStore {
	return NewVerificationStore(WithClock(clk.Now), WithGenerator(sequence()))
}

func TestVerificationStore_IssueAndVerify(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)

	code, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", code))
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", code), "successful verify does not consume the code")
	assert.False(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", "999999"))
	assert.True(t, s.HasCode(domain.PurposeRegistration, "a@x.com"), "mismatch leaves the code in place")
}

func TestVerificationStore_DefaultGeneratorRange(t *testing.T) {
	s := NewVerificationStore()
	for i := 0; i < 200; i++ {
		code, err := s.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
	assert.Equal(t, DefaultCodeTTL, s.TTL())
}

func TestVerificationStore_ExpiryEvicts(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)
	code, err := s.IssueCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)

	snap, ok := s.Code(domain.PurposePasswordReset, "a@x.com")
	require.True(t, ok)
	assert.Equal(t, snap.IssuedAt.Add(DefaultCodeTTL), snap.ExpiresAt)

	clk.Advance(DefaultCodeTTL)
	assert.True(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", code), "valid at exactly expiresAt")

	clk.Advance(time.Second)
	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", code))
	assert.False(t, s.HasCode(domain.PurposePasswordReset, "a@x.com"))
}

func TestVerificationStore_ResendInvalidatesPrevious(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)
	c1, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	c2, err := s.ResendCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)

	assert.False(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", c1))
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", c2))

	// The resent code gets a full window of its own.
	clk.Advance(8 * time.Minute)
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", c2))
}

func TestVerificationStore_RemoveIsIdempotent(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)

	s.RemoveCode(domain.PurposeRegistration, "a@x.com")
	s.RemoveCode(domain.PurposeRegistration, "a@x.com")
	s.RemoveCode(domain.PurposeRegistration, "nobody@x.com")
	assert.False(t, s.HasCode(domain.PurposeRegistration, "a@x.com"))
}

func TestVerificationStore_PurposesAreIndependent(t *testing.T) {
	s := newTestStore(newFakeClock())
	reg, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)
	reset, err := s.IssueCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)

	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", reg))
	s.RemoveCode(domain.PurposePasswordReset, "a@x.com")
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", reg))
	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", reset))
}

func TestVerificationStore_EmailIsNormalized(t *testing.T) {
	s := newTestStore(newFakeClock())
	code, err := s.IssueCode(domain.PurposeRegistration, "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "alice@example.com", code))
}

func TestVerificationStore_UnknownPurpose(t *testing.T) {
	s := newTestStore(newFakeClock())
	_, err := s.IssueCode(domain.Purpose("login"), "a@x.com")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.False(t, s.VerifyCode(domain.Purpose("login"), "a@x.com", "100000"))
	assert.False(t, s.HasCode(domain.Purpose("login"), "a@x.com"))
	s.RemoveCode(domain.Purpose("login"), "a@x.com")
}

func TestVerificationStore_GeneratorError(t *testing.T) {
	s := NewVerificationStore(WithGenerator(func() (string, error) { return "", assert.AnError }))
	_, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, s.HasCode(domain.PurposeRegistration, "a@x.com"))
}

func TestVerificationStore_ConfirmCode(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)
	code, err := s.IssueCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)

	assert.False(t, s.IsConfirmed(domain.PurposePasswordReset, "a@x.com"))
	assert.False(t, s.ConfirmCode(domain.PurposePasswordReset, "a@x.com", "000000"))
	assert.False(t, s.IsConfirmed(domain.PurposePasswordReset, "a@x.com"))

	assert.True(t, s.ConfirmCode(domain.PurposePasswordReset, "a@x.com", code))
	assert.True(t, s.IsConfirmed(domain.PurposePasswordReset, "a@x.com"))

	// Resending starts over.
	_, err = s.ResendCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)
	assert.False(t, s.IsConfirmed(domain.PurposePasswordReset, "a@x.com"))

	clk.Advance(DefaultCodeTTL + time.Second)
	assert.False(t, s.IsConfirmed(domain.PurposePasswordReset, "a@x.com"))
}

func TestVerificationStore_RevokedAfterMaxAttempts(t *testing.T) {
	s := NewVerificationStore(WithClock(newFakeClock().Now), WithGenerator(sequence()), WithMaxAttempts(3))
	code, err := s.IssueCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)

	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", "000001"))
	assert.False(t, s.ConfirmCode(domain.PurposePasswordReset, "a@x.com", "000002"))
	assert.True(t, s.HasCode(domain.PurposePasswordReset, "a@x.com"))

	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", "000003"))
	assert.False(t, s.HasCode(domain.PurposePasswordReset, "a@x.com"), "third miss revokes the code")
	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", code), "the right code no longer works")

	// A fresh code starts with a clean count.
	code, err = s.ResendCode(domain.PurposePasswordReset, "a@x.com")
	require.NoError(t, err)
	assert.False(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", "000004"))
	assert.True(t, s.VerifyCode(domain.PurposePasswordReset, "a@x.com", code))
}

func TestVerificationStore_GuessingConcurrentlyIsCapped(t *testing.T) {
	s := newTestStore(newFakeClock())
	code, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			guess := fmt.Sprintf("%06d", 900000+g)
			s.VerifyCode(domain.PurposeRegistration, "a@x.com", guess)
		}(g)
	}
	wg.Wait()
	assert.False(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", code))
}

func TestVerificationStore_TakePendingRegistration(t *testing.T) {
	s := newTestStore(newFakeClock())
	s.StagePendingRegistration("a@x.com", domain.PendingRegistration{Username: "alice", Email: "a@x.com"})

	var wg sync.WaitGroup
	var won atomic.Int32
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.TakePendingRegistration("A@x.com"); ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())
	_, ok := s.FetchPendingRegistration("a@x.com")
	assert.False(t, ok)

	p := domain.PendingRegistration{Username: "alice", Email: "a@x.com"}
	assert.True(t, s.RestorePendingRegistration("a@x.com", p))
	got, ok := s.FetchPendingRegistration("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)

	s.StagePendingRegistration("a@x.com", domain.PendingRegistration{Username: "newer", Email: "a@x.com"})
	assert.False(t, s.RestorePendingRegistration("a@x.com", p), "a newer staging wins over a restore")
	got, _ = s.FetchPendingRegistration("a@x.com")
	assert.Equal(t, "newer", got.Username)
}

func TestVerificationStore_PendingRegistration(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)

	_, ok := s.FetchPendingRegistration("a@x.com")
	assert.False(t, ok)

	s.StagePendingRegistration("a@x.com", domain.PendingRegistration{Username: "alice", Email: "a@x.com"})
	p, ok := s.FetchPendingRegistration("A@X.com")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, clk.Now(), p.StagedAt)

	s.StagePendingRegistration("a@x.com", domain.PendingRegistration{Username: "alice2", Email: "a@x.com"})
	p, ok = s.FetchPendingRegistration("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "alice2", p.Username, "staging again overwrites")

	// Pending registrations have no expiry of their own.
	clk.Advance(time.Hour)
	_, ok = s.FetchPendingRegistration("a@x.com")
	assert.True(t, ok)

	s.DiscardPendingRegistration("a@x.com")
	s.DiscardPendingRegistration("a@x.com")
	_, ok = s.FetchPendingRegistration("a@x.com")
	assert.False(t, ok)
}

func TestVerificationStore_Sweep(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)

	// Abandoned: code expires, registration stays behind.
	s.StagePendingRegistration("old@x.com", domain.PendingRegistration{Username: "old"})
	_, err := s.IssueCode(domain.PurposeRegistration, "old@x.com")
	require.NoError(t, err)
	_, err = s.IssueCode(domain.PurposePasswordReset, "old@x.com")
	require.NoError(t, err)

	clk.Advance(DefaultCodeTTL + time.Minute)

	// Fresh: staged after the clock moved on.
	s.StagePendingRegistration("new@x.com", domain.PendingRegistration{Username: "new"})
	_, err = s.IssueCode(domain.PurposeRegistration, "new@x.com")
	require.NoError(t, err)

	removed := s.Sweep()
	assert.Equal(t, 3, removed)

	_, ok := s.FetchPendingRegistration("old@x.com")
	assert.False(t, ok)
	_, ok = s.FetchPendingRegistration("new@x.com")
	assert.True(t, ok)
	assert.True(t, s.HasCode(domain.PurposeRegistration, "new@x.com"))
}

func TestVerificationStore_SweepKeepsRegistrationWithLiveCode(t *testing.T) {
	clk := newFakeClock()
	s := newTestStore(clk)
	s.StagePendingRegistration("a@x.com", domain.PendingRegistration{Username: "a"})

	clk.Advance(DefaultCodeTTL + time.Minute)
	_, err := s.ResendCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, 0, s.Sweep())
	_, ok := s.FetchPendingRegistration("a@x.com")
	assert.True(t, ok)
}

func TestVerificationStore_ResendRacesVerify(t *testing.T) {
	s := NewVerificationStore(WithGenerator(sequence()))
	old, err := s.IssueCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					s.VerifyCode(domain.PurposeRegistration, "a@x.com", old)
				}
			}
		}()
	}

	fresh, err := s.ResendCode(domain.PurposeRegistration, "a@x.com")
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.False(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", old))
	}
	close(stop)
	wg.Wait()
	assert.True(t, s.VerifyCode(domain.PurposeRegistration, "a@x.com", fresh))
}

func TestVerificationStore_ConcurrentEmails(t *testing.T) {
	s := NewVerificationStore()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@x.com", i)
			code, err := s.IssueCode(domain.PurposeRegistration, email)
			assert.NoError(t, err)
			assert.True(t, s.VerifyCode(domain.PurposeRegistration, email, code))
			s.RemoveCode(domain.PurposeRegistration, email)
			assert.False(t, s.HasCode(domain.PurposeRegistration, email))
		}(i)
	}
	wg.Wait()
}
