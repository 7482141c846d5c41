package user

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/caretrack/caretrack/internal/platform/blobstore"
	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/internal/platform/session"
	"github.com/caretrack/caretrack/internal/platform/token"
	"github.com/caretrack/caretrack/internal/platform/validate"
	"github.com/caretrack/caretrack/pkg/pagination"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password
	// so responses cannot be used to probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
)

type Service struct {
	users    Repository
	sessions session.Store
	tokens   *token.Codec
	photos   blobstore.Store
	validate *validator.Validate
}

func NewService(users Repository, sessions session.Store, tokens *token.Codec, photos blobstore.Store) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		photos:   photos,
		validate: validate.New(),
	}
}

// Login verifies the password and issues a fresh token. Storing the token
// supersedes whatever the subject held before, so a second login from
// anywhere revokes the first.
func (s *Service) Login(ctx context.Context, payload *LoginPayload) (*LoginResult, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, payload.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(payload.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrNotActivated
	}
	return s.issue(ctx, u)
}

// Renew issues a replacement token for an authenticated subject. The tier
// is re-read from the account so privilege changes take effect here, not
// only at next login.
func (s *Service) Renew(ctx context.Context, userID int64) (*LoginResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrNotActivated
	}
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u *User) (*LoginResult, error) {
	raw, expiresAt, err := s.tokens.Issue(u.ID, int(u.Tier))
	if err != nil {
		return nil, err
	}
	err = s.sessions.Put(ctx, &session.Session{
		UserID:    u.ID,
		Tier:      int(u.Tier),
		Token:     raw,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: raw, ExpiresAt: expiresAt, User: u}, nil
}

// Logout clears the stored session. The token the client still holds keeps
// parsing but no longer matches anything, which is what revokes it.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, userID)
}

// Activate flips an account to active and burns the activation code.
func (s *Service) Activate(ctx context.Context, code string) (*User, error) {
	u, err := s.users.GetByActivationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	u.Active = true
	u.ActivationCode = ""
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, payload *CreatePayload) (*User, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	tier := pipeline.TierCaregiver
	if payload.Tier != nil {
		tier = pipeline.Tier(*payload.Tier)
	}
	u := &User{
		Email:          payload.Email,
		PasswordHash:   string(hash),
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Phone:          payload.Phone,
		Tier:           tier,
		Active:         false,
		ActivationCode: uuid.NewString(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, pg pagination.Params) ([]*User, int, error) {
	return s.users.List(ctx, pg)
}

var fieldRules = map[string]string{
	"email":      "required,email",
	"first_name": "required,max=100",
	"last_name":  "required,max=100",
	"phone":      "omitempty,max=32",
}

// intValue accepts both JSON numbers and form-encoded strings, so a tier
// update behaves the same whichever body encoding carried it.
func intValue(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func boolValue(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func (s *Service) applyFields(u *User, fields map[string]any) error {
	targets := map[string]*string{
		"email":      &u.Email,
		"first_name": &u.FirstName,
		"last_name":  &u.LastName,
		"phone":      &u.Phone,
	}

	errs := validate.FieldErrors{}
	for key, raw := range fields {
		switch key {
		case "tier":
			n, ok := intValue(raw)
			if !ok {
				errs[key] = "must be an integer"
				continue
			}
			if n < int(pipeline.TierAdministrator) || n > int(pipeline.TierCaregiver) {
				errs[key] = "must be between 0 and 2"
				continue
			}
			u.Tier = pipeline.Tier(n)
		case "active":
			b, ok := boolValue(raw)
			if !ok {
				errs[key] = "must be a boolean"
				continue
			}
			u.Active = b
		case "password":
			pw, ok := raw.(string)
			if !ok {
				errs[key] = "must be a string"
				continue
			}
			if reason := validate.VarReason(s.validate, pw, "required,min=8"); reason != "" {
				errs[key] = reason
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u.PasswordHash = string(hash)
		default:
			rule, ok := fieldRules[key]
			if !ok {
				errs[key] = "unknown field"
				continue
			}
			value, ok := raw.(string)
			if !ok {
				errs[key] = "must be a string"
				continue
			}
			if reason := validate.VarReason(s.validate, value, rule); reason != "" {
				errs[key] = reason
				continue
			}
			*targets[key] = value
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, fields map[string]any) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyFields(u, fields); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the account and its session, so a deleted user's token
// dies with the row even if the sessions table lacks a cascade.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// SetPhoto stores a new profile photo and swaps it in. The previous object
// is removed only after the record points at the new one.
func (s *Service) SetPhoto(ctx context.Context, id int64, content io.Reader) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	object, err := s.photos.Save(ctx, content)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrTooLarge):
			return nil, pipeline.NewError(http.StatusRequestEntityTooLarge, "Photo exceeds the maximum allowed size")
		case errors.Is(err, blobstore.ErrUnsupportedFormat):
			return nil, pipeline.NewError(http.StatusUnsupportedMediaType, "Photo must be a JPEG, PNG or WebP image")
		}
		return nil, err
	}

	previous := u.Photo
	u.Photo = object
	if err := s.users.Update(ctx, u); err != nil {
		_ = s.photos.Remove(ctx, object)
		return nil, err
	}
	if previous != "" {
		_ = s.photos.Remove(ctx, previous)
	}
	return u, nil
}
