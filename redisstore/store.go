// Package redisstore implements the AccountStore contract on Redis.
//
// Every account lives under one key; email and token lookups go through index
// keys that map a normalized email or token digest to the account ID. All
// mutations run inside WATCH/MULTI optimistic transactions keyed on the
// account record, with the record's version counter advancing on every write,
// so concurrent read-modify-write cycles retry instead of losing updates.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmcadam/authflow"
)

const (
	defaultPrefix = "afl"
	maxRetries    = 4
)

var errImmutableField = errors.New("account id, email, and createdAt are immutable")

// Store is a Redis-backed AccountStore. Safe for concurrent use.
type Store struct {
	redis  *redis.Client
	prefix string
}

func New(client *redis.Client) *Store {
	return &Store{
		redis:  client,
		prefix: defaultPrefix,
	}
}

func (s *Store) accountKey(id string) string {
	return s.prefix + ":acct:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Store) verificationKey(digest string) string {
	return s.prefix + ":vtok:" + digest
}

func (s *Store) resetKey(digest string) string {
	return s.prefix + ":rtok:" + digest
}

// Create installs the record and its email claim atomically. The email key is
// watched, so two racing registrations for the same address cannot both
// succeed.
func (s *Store) Create(ctx context.Context, account *authflow.Account) error {
	encoded, err := encodeAccount(account)
	if err != nil {
		return err
	}

	emailKey := s.emailKey(account.Email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			_, err := tx.Get(ctx, emailKey).Result()
			if err == nil {
				return authflow.ErrEmailExists
			}
			if !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.accountKey(account.ID), encoded, 0)
				pipe.Set(ctx, emailKey, account.ID, 0)
				s.writeTokenIndexes(ctx, pipe, nil, account)
				return nil
			})
			return err
		}, emailKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, authflow.ErrEmailExists) {
			return authflow.ErrEmailExists
		}
		if err != nil {
			return fmt.Errorf("%w: %v", authflow.ErrStoreUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: create retries exhausted", authflow.ErrStoreUnavailable)
}

func (s *Store) GetByID(ctx context.Context, id string) (*authflow.Account, error) {
	data, err := s.redis.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authflow.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", authflow.ErrStoreUnavailable, err)
	}
	return decodeAccount(data)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*authflow.Account, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authflow.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", authflow.ErrStoreUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// GetByVerificationToken resolves a token digest through the index and
// re-checks digest and expiry against the record itself, so a stale index
// entry can never resurrect a rotated or expired token.
func (s *Store) GetByVerificationToken(ctx context.Context, digest string, now time.Time) (*authflow.Account, error) {
	account, err := s.lookupByToken(ctx, s.verificationKey(digest))
	if err != nil {
		return nil, err
	}
	if account.VerificationTokenHash != digest || !account.VerificationExpires.After(now) {
		return nil, authflow.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) GetByResetToken(ctx context.Context, digest string, now time.Time) (*authflow.Account, error) {
	account, err := s.lookupByToken(ctx, s.resetKey(digest))
	if err != nil {
		return nil, err
	}
	if account.ResetTokenHash != digest || !account.ResetExpires.After(now) {
		return nil, authflow.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) lookupByToken(ctx context.Context, indexKey string) (*authflow.Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authflow.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", authflow.ErrStoreUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// Mutate runs fn against the current record under WATCH and persists the
// result with an advanced version. A concurrent writer invalidates the
// transaction and the whole cycle retries with fresh state.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*authflow.Account) error) (*authflow.Account, error) {
	key := s.accountKey(id)

	for i := 0; i < maxRetries; i++ {
		var result *authflow.Account

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			current, err := decodeAccount(data)
			if err != nil {
				return err
			}

			updated := *current
			if err := fn(&updated); err != nil {
				return &callbackError{err: err}
			}
			if updated.ID != current.ID || updated.Email != current.Email || !updated.CreatedAt.Equal(current.CreatedAt) {
				return &callbackError{err: errImmutableField}
			}
			updated.Version = current.Version + 1

			encoded, err := encodeAccount(&updated)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				s.writeTokenIndexes(ctx, pipe, current, &updated)
				return nil
			})
			if err != nil {
				return err
			}

			result = &updated
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return nil, authflow.ErrAccountNotFound
		}
		if err != nil {
			var cb *callbackError
			if errors.As(err, &cb) {
				return nil, cb.err
			}
			return nil, fmt.Errorf("%w: %v", authflow.ErrStoreUnavailable, err)
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: mutate retries exhausted", authflow.ErrStoreUnavailable)
}

// ClearLockState zeroes the failure counter and lock window and stamps the
// login time, all in one transaction.
func (s *Store) ClearLockState(ctx context.Context, id string, now time.Time) (*authflow.Account, error) {
	return s.Mutate(ctx, id, func(a *authflow.Account) error {
		a.LoginAttempts = 0
		a.LockUntil = time.Time{}
		a.LastLogin = now
		return nil
	})
}

// writeTokenIndexes reconciles the token index keys with the record's current
// digests. Index entries carry the token TTL so expired tokens age out of
// Redis on their own.
func (s *Store) writeTokenIndexes(ctx context.Context, pipe redis.Pipeliner, previous, updated *authflow.Account) {
	prevVerification, prevReset := "", ""
	if previous != nil {
		prevVerification = previous.VerificationTokenHash
		prevReset = previous.ResetTokenHash
	}

	if prevVerification != updated.VerificationTokenHash {
		if prevVerification != "" {
			pipe.Del(ctx, s.verificationKey(prevVerification))
		}
		if updated.VerificationTokenHash != "" {
			if ttl := time.Until(updated.VerificationExpires); ttl > 0 {
				pipe.Set(ctx, s.verificationKey(updated.VerificationTokenHash), updated.ID, ttl)
			}
		}
	}

	if prevReset != updated.ResetTokenHash {
		if prevReset != "" {
			pipe.Del(ctx, s.resetKey(prevReset))
		}
		if updated.ResetTokenHash != "" {
			if ttl := time.Until(updated.ResetExpires); ttl > 0 {
				pipe.Set(ctx, s.resetKey(updated.ResetTokenHash), updated.ID, ttl)
			}
		}
	}
}

// callbackError marks an error raised by a Mutate closure so it passes back
// to the caller unchanged instead of picking up the transient-store wrapper.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }

func (e *callbackError) Unwrap() error { return e.err }
