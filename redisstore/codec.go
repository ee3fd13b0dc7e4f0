package redisstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmcadam/authflow"
)

// record is the persisted shape of an account. The domain struct's JSON tags
// drop the password hash and token digests from API responses, so storage
// marshals through this type instead to keep every field.
type record struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	FirstName             string    `json:"firstName"`
	LastName              string    `json:"lastName"`
	PasswordHash          string    `json:"passwordHash"`
	Role                  string    `json:"role"`
	IsVerified            bool      `json:"isVerified"`
	VerificationTokenHash string    `json:"verificationTokenHash,omitempty"`
	VerificationExpires   time.Time `json:"verificationExpires,omitzero"`
	ResetTokenHash        string    `json:"resetTokenHash,omitempty"`
	ResetExpires          time.Time `json:"resetExpires,omitzero"`
	LoginAttempts         int       `json:"loginAttempts"`
	LockUntil             time.Time `json:"lockUntil,omitzero"`
	LastLogin             time.Time `json:"lastLogin,omitzero"`
	CreatedAt             time.Time `json:"createdAt"`
	Version               uint64    `json:"version"`
}

func encodeAccount(a *authflow.Account) ([]byte, error) {
	data, err := json.Marshal(record{
		ID:                    a.ID,
		Email:                 a.Email,
		FirstName:             a.FirstName,
		LastName:              a.LastName,
		PasswordHash:          a.PasswordHash,
		Role:                  a.Role,
		IsVerified:            a.IsVerified,
		VerificationTokenHash: a.VerificationTokenHash,
		VerificationExpires:   a.VerificationExpires,
		ResetTokenHash:        a.ResetTokenHash,
		ResetExpires:          a.ResetExpires,
		LoginAttempts:         a.LoginAttempts,
		LockUntil:             a.LockUntil,
		LastLogin:             a.LastLogin,
		CreatedAt:             a.CreatedAt,
		Version:               a.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("encode account %s: %w", a.ID, err)
	}
	return data, nil
}

func decodeAccount(data []byte) (*authflow.Account, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode account record: %w", err)
	}
	return &authflow.Account{
		ID:                    r.ID,
		Email:                 r.Email,
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		PasswordHash:          r.PasswordHash,
		Role:                  r.Role,
		IsVerified:            r.IsVerified,
		VerificationTokenHash: r.VerificationTokenHash,
		VerificationExpires:   r.VerificationExpires,
		ResetTokenHash:        r.ResetTokenHash,
		ResetExpires:          r.ResetExpires,
		LoginAttempts:         r.LoginAttempts,
		LockUntil:             r.LockUntil,
		LastLogin:             r.LastLogin,
		CreatedAt:             r.CreatedAt,
		Version:               r.Version,
	}, nil
}
