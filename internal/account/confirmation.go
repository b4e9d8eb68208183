package account

import (
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/M0byNick/bookandacoffee/internal/account/entity"
)

// ConfirmationTokens derives and verifies email confirmation tokens from an
// account id. Nothing is persisted: a token is a bcrypt hash of the id, so each
// derivation differs and verification goes through bcrypt's compare.
//
// Tokens never expire and may be verified repeatedly; single use is enforced
// only by the confirmed flag on the account.
type ConfirmationTokens struct {
	cost int
}

func NewConfirmationTokens(cfg Config) (*ConfirmationTokens, error) {
	cost, err := cfg.cost()
	if err != nil {
		return nil, err
	}
	return &ConfirmationTokens{cost: cost}, nil
}

// DeriveToken returns "" for an already confirmed account, meaning nothing to send.
func (t *ConfirmationTokens) DeriveToken(a *entity.Account) (string, error) {
	if a.IsEmailConfirmed {
		return "", nil
	}
	if a.ID == "" {
		return "", ErrMissingAccountID
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.ID), t.cost)
	if err != nil {
		return "", pkgerrors.WithStack(&HashBackendError{Op: "derive confirmation token", Err: err})
	}
	return string(hash), nil
}

// VerifyToken reports whether token was derived from a.ID. Empty and malformed
// tokens are false, not errors. A token carrying any cost other than the
// configured one was not produced by DeriveToken and is rejected before any
// key expansion runs.
func (t *ConfirmationTokens) VerifyToken(a *entity.Account, token string) (bool, error) {
	if token == "" || a.ID == "" {
		return false, nil
	}
	if cost, err := bcrypt.Cost([]byte(token)); err != nil || cost != t.cost {
		return false, nil
	}
	ok, err := compareHash(token, a.ID)
	if err != nil {
		if isMalformedHash(err) {
			return false, nil
		}
		return false, pkgerrors.WithStack(&HashBackendError{Op: "verify confirmation token", Err: err})
	}
	return ok, nil
}
