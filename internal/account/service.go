package account

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/M0byNick/bookandacoffee/internal/account/entity"
	"github.com/M0byNick/bookandacoffee/internal/account/repo"
)

// Store is the persistence collaborator. It enforces uniqueness of id,
// username and email, and is the only writer of the confirmed flag.
type Store interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByUsername(ctx context.Context, username string) (*entity.Account, error)
	Update(ctx context.Context, a *entity.Account) error
	MarkEmailConfirmed(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// IDGenerator assigns account ids at creation.
type IDGenerator interface {
	NewID() string
}

// SignupInput is the payload for creating an account.
type SignupInput struct {
	Username string `validate:"required,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ProfileInput carries the non-credential fields a user may edit.
type ProfileInput struct {
	Biography        string   `validate:"max=2000"`
	FavoriteSubjects []string `validate:"dive,required"`
	ProfilePicURL    string   `validate:"omitempty,url"`
}

// Service orchestrates account lifecycle and the login and email
// confirmation flows on top of the store.
type Service struct {
	store    Store
	ids      IDGenerator
	hasher   *CredentialHasher
	tokens   *ConfirmationTokens
	validate *validator.Validate
	logger   *zap.SugaredLogger
	locks    keyedMutex
}

func NewService(store Store, ids IDGenerator, cfg Config, logger *zap.SugaredLogger) (*Service, error) {
	hasher, err := NewCredentialHasher(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := NewConfirmationTokens(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:    store,
		ids:      ids,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}

// persist runs the pre-persist hook and then writes the record.
func (s *Service) persist(ctx context.Context, a *entity.Account, isNew, passwordDirty bool) error {
	if _, err := s.hasher.HashIfNeeded(a, isNew, passwordDirty); err != nil {
		return err
	}
	if isNew {
		return s.store.Create(ctx, a)
	}
	return s.store.Update(ctx, a)
}

// Signup creates an unconfirmed account with a hashed password.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	a := &entity.Account{
		ID:               s.ids.NewID(),
		Username:         in.Username,
		Email:            in.Email,
		Password:         in.Password,
		IsEmailConfirmed: false,
		FavoriteSubjects: []string{},
		ProfilePicURL:    entity.DefaultProfilePicURL,
	}
	if err := s.persist(ctx, a, true, true); err != nil {
		s.logger.Warnw("signup failed", "err", err)
		return nil, err
	}
	s.logger.Infow("account created", "account_id", a.ID)
	return a, nil
}

// Authenticate looks the account up by email (identifier contains '@') or
// username and checks the password. Unknown accounts and wrong passwords both
// yield ErrBadCredentials after the same amount of hashing work.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*entity.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBadCredentials
	}
	var (
		a   *entity.Account
		err error
	)
	if strings.Contains(identifier, "@") {
		a, err = s.store.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		a, err = s.store.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.hasher.RejectPassword(password)
			return nil, ErrBadCredentials
		} // avoid account enumeration
		return nil, err
	}
	if a.Password == "" {
		s.hasher.RejectPassword(password)
		return nil, ErrBadCredentials
	}
	ok, err := s.hasher.VerifyPassword(password, a.Password)
	if err != nil {
		s.logger.Errorw("password verification failed", "account_id", a.ID, "err", err)
		return nil, err
	}
	if !ok {
		s.logger.Debugw("login rejected", "account_id", a.ID)
		return nil, ErrBadCredentials
	}
	return a, nil
}

// ChangePassword verifies current and stores next. Changes for one account are
// serialized so the dirty decision cannot race.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return ErrPasswordRequired
	}
	if len(next) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.hasher.RejectPassword(current)
			return ErrBadCredentials
		}
		return err
	}
	if a.Password == "" {
		s.hasher.RejectPassword(current)
		return ErrBadCredentials
	}
	ok, err := s.hasher.VerifyPassword(current, a.Password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadCredentials
	}
	a.Password = next
	if err := s.persist(ctx, a, false, true); err != nil {
		return err
	}
	s.logger.Infow("password changed", "account_id", id)
	return nil
}

// UpdateProfile stores profile fields. The password is untouched and not rehashed.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*entity.Account, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Biography = in.Biography
	a.FavoriteSubjects = append([]string{}, in.FavoriteSubjects...)
	if in.ProfilePicURL != "" {
		a.ProfilePicURL = in.ProfilePicURL
	}
	if err := s.persist(ctx, a, false, false); err != nil {
		return nil, err
	}
	return a, nil
}

// RequestConfirmation derives a confirmation token for delivery out of band.
// An empty token means the account is already confirmed and there is nothing to send.
func (s *Service) RequestConfirmation(ctx context.Context, id string) (string, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.DeriveToken(a)
	if err != nil {
		return "", err
	}
	if token != "" {
		s.logger.Infow("confirmation token issued", "account_id", id)
	}
	return token, nil
}

// ConfirmEmail verifies token against the account and marks its email confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, id, token string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidConfirmationToken
		}
		return err
	}
	if a.IsEmailConfirmed {
		return ErrAlreadyConfirmed
	}
	ok, err := s.tokens.VerifyToken(a, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidConfirmationToken
	}
	changed, err := s.store.MarkEmailConfirmed(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyConfirmed
	}
	s.logger.Infow("email confirmed", "account_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Account, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("account deleted", "account_id", id)
	return nil
}

// keyedMutex hands out one mutex per account id and drops it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
