package account

import (
	"encoding/base64"
	"errors"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/M0byNick/bookandacoffee/internal/account/entity"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// CredentialHasher keeps at-rest passwords one-way hashed. It holds no mutable
// state and is safe for concurrent use.
type CredentialHasher struct {
	cost int
	// dummy is a hash at the configured cost, compared against when there is
	// no stored hash so that a miss costs the same as a wrong password.
	dummy   string
	compare func(hash, plain string) (bool, error)
}

func NewCredentialHasher(cfg Config) (*CredentialHasher, error) {
	cost, err := cfg.cost()
	if err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("bookandacoffee"), cost)
	if err != nil {
		return nil, pkgerrors.WithStack(&HashBackendError{Op: "prepare dummy hash", Err: err})
	}
	return &CredentialHasher{cost: cost, dummy: string(dummy), compare: compareHash}, nil
}

// Cost returns the bcrypt cost used for new hashes.
func (h *CredentialHasher) Cost() int { return h.cost }

// HashIfNeeded is the pre-persist hook. When isNew or passwordDirty is set it
// replaces a.Password with its bcrypt hash and reports true; otherwise the
// field is left untouched. The decision is made only from the flags, never by
// inspecting the current value.
func (h *CredentialHasher) HashIfNeeded(a *entity.Account, isNew, passwordDirty bool) (bool, error) {
	if !isNew && !passwordDirty {
		return false, nil
	}
	if a.Password == "" {
		return false, ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), h.cost)
	if err != nil {
		return false, pkgerrors.WithStack(&HashBackendError{Op: "hash password", Err: err})
	}
	a.Password = string(hash)
	return true, nil
}

// VerifyPassword reports whether candidate produced storedHash. A mismatch is
// false with a nil error; a stored hash bcrypt cannot parse is a HashBackendError.
func (h *CredentialHasher) VerifyPassword(candidate, storedHash string) (bool, error) {
	ok, err := h.compare(storedHash, candidate)
	if err != nil {
		return false, pkgerrors.WithStack(&HashBackendError{Op: "verify password", Err: err})
	}
	return ok, nil
}

// RejectPassword spends one comparison at the configured cost and always
// reports false. Use it where there is no stored hash to check against.
func (h *CredentialHasher) RejectPassword(candidate string) {
	_, _ = h.compare(h.dummy, candidate)
}

// compareHash wraps bcrypt.CompareHashAndPassword, turning a mismatch into false.
func compareHash(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// isMalformedHash reports whether err came from parsing the hash string rather
// than from the primitive.
func isMalformedHash(err error) bool {
	var (
		prefixErr  bcrypt.InvalidHashPrefixError
		costErr    bcrypt.InvalidCostError
		versionErr bcrypt.HashVersionTooNewError
		b64Err     base64.CorruptInputError
		numErr     *strconv.NumError
	)
	return errors.Is(err, bcrypt.ErrHashTooShort) ||
		errors.As(err, &prefixErr) ||
		errors.As(err, &costErr) ||
		errors.As(err, &versionErr) ||
		errors.As(err, &b64Err) ||
		errors.As(err, &numErr)
}
