package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos_sales/internal/config"
	"pos_sales/internal/storage"
)

var (
	// ErrInvalidCredentials is returned by Login for any unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is returned by LoginWithCode for unknown, used or unusable codes.
	ErrInvalidCode = errors.New("invalid or already-used code")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTempUserNotFound   = errors.New("temp user not found")
	ErrTempUserInactive   = errors.New("temp user is inactive")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")
)

const (
	codeDigits   = 6
	codeAttempts = 20
)

// Service implements credential login, one-time code login and the
// administration of users, temp users and codes. Every load-modify-save
// of a collection holds mu, so a code is redeemed at most once per process.
type Service struct {
	mu        sync.Mutex
	users     *storage.Collection[User]
	codes     *storage.Collection[TempCode]
	tempUsers *storage.Collection[TempUser]
	admin     config.AdminConfig
	logger    *zap.Logger
	now       func() time.Time
	newCode   func() (string, error)
}

// NewService creates a new auth Service. admin is the fixed administrator
// credential checked before the stored user list.
func NewService(store storage.Store, admin config.AdminConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     storage.NewCollection[User](store, storage.KeyUsers),
		codes:     storage.NewCollection[TempCode](store, storage.KeyTempCodes),
		tempUsers: storage.NewCollection[TempUser](store, storage.KeyTempUsers),
		admin:     admin,
		logger:    logger,
		now:       time.Now,
		newCode:   randomCode,
	}
}

// Login checks the administrator credential, then the stored users.
func (s *Service) Login(ctx context.Context, email, password string) (Identity, error) {
	adminEmail := equalSecret(email, s.admin.Email)
	adminPassword := equalSecret(password, s.admin.Password)
	if adminEmail && adminPassword {
		s.logger.Info("admin logged in", zap.String("email", email))
		return s.adminIdentity(), nil
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("load users: %w", err)
	}

	var hash string
	var found *User
	for i := range users {
		if users[i].Email == email {
			found = &users[i]
			hash = users[i].PasswordHash
			break
		}
	}

	if !verifyPassword(password, hash) || found == nil {
		s.logger.Warn("credential login failed", zap.String("email", email))
		return Identity{}, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.String("user_id", found.ID), zap.String("role", string(found.Role)))
	return found.Identity(), nil
}

// LoginWithCode redeems an unused one-time code and returns a temp identity.
// The code is marked used and bound to the redeeming identity.
func (s *Service) LoginWithCode(ctx context.Context, code string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes, err := s.codes.Load(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("load codes: %w", err)
	}

	idx := -1
	for i := range codes {
		if !codes[i].Used && equalSecret(codes[i].Code, code) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Warn("code login failed")
		return Identity{}, ErrInvalidCode
	}

	identity, err := s.redeemIdentity(ctx, codes[idx])
	if err != nil {
		return Identity{}, err
	}

	codes[idx].Used = true
	codes[idx].UserID = identity.ID

	if err := s.codes.Save(ctx, codes); err != nil {
		s.logger.Error("failed to mark code as used", zap.Error(err))
		return Identity{}, fmt.Errorf("failed to save codes: %w", err)
	}

	s.logger.Info("temp user logged in", zap.String("user_id", identity.ID))
	return identity, nil
}

func (s *Service) redeemIdentity(ctx context.Context, code TempCode) (Identity, error) {
	if code.TempUserID == "" {
		return Identity{
			ID:    fmt.Sprintf("temp-%d", s.now().UnixMilli()),
			Email: fmt.Sprintf("temp-%s@temporal.com", code.Code),
			Name:  fmt.Sprintf("Temporary user %s", code.Code),
			Role:  RoleTemp,
		}, nil
	}

	tempUsers, err := s.tempUsers.Load(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("load temp users: %w", err)
	}
	for _, tu := range tempUsers {
		if tu.ID == code.TempUserID {
			if !tu.Active {
				s.logger.Warn("code bound to inactive temp user", zap.String("temp_user_id", tu.ID))
				return Identity{}, ErrInvalidCode
			}
			return tu.Identity(), nil
		}
	}

	s.logger.Warn("code bound to missing temp user", zap.String("temp_user_id", code.TempUserID))
	return Identity{}, ErrInvalidCode
}

// GenerateCode stores a new six-digit code. A non-empty tempUserID binds
// the code to that temp user, who must exist and be active.
func (s *Service) GenerateCode(ctx context.Context, tempUserID string) (TempCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tempUserID != "" {
		tu, err := s.GetTempUser(ctx, tempUserID)
		if err != nil {
			return TempCode{}, err
		}
		if !tu.Active {
			return TempCode{}, ErrTempUserInactive
		}
	}

	codes, err := s.codes.Load(ctx)
	if err != nil {
		return TempCode{}, fmt.Errorf("load codes: %w", err)
	}

	taken := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		taken[c.Code] = struct{}{}
	}

	var code string
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate, err := s.newCode()
		if err != nil {
			return TempCode{}, err
		}
		if _, dup := taken[candidate]; !dup {
			code = candidate
			break
		}
	}
	if code == "" {
		return TempCode{}, ErrCodeSpaceExhausted
	}

	tc := TempCode{
		Code:       code,
		Generated:  s.now().UTC(),
		TempUserID: tempUserID,
	}

	if err := s.codes.Save(ctx, append(codes, tc)); err != nil {
		s.logger.Error("failed to save code", zap.Error(err))
		return TempCode{}, fmt.Errorf("failed to save codes: %w", err)
	}

	s.logger.Info("temp code generated", zap.String("temp_user_id", tempUserID))
	return tc, nil
}

func (s *Service) ListCodes(ctx context.Context) ([]TempCode, error) {
	return s.codes.Load(ctx)
}

// CreateUser adds an account for credential login.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, role Role) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if role != RoleUser && role != RoleAdmin {
		return User{}, fmt.Errorf("create user: role %q: %w", role, ErrInvalidRole)
	}
	if equalSecret(email, s.admin.Email) {
		return User{}, ErrEmailTaken
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Email == email {
			return User{}, ErrEmailTaken
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Save(ctx, append(users, user)); err != nil {
		s.logger.Error("failed to save user", zap.String("user_id", user.ID), zap.Error(err))
		return User{}, fmt.Errorf("failed to save users: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.Load(ctx)
}

func (s *Service) CreateTempUser(ctx context.Context, name, email string) (TempUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return TempUser{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	tempUsers, err := s.tempUsers.Load(ctx)
	if err != nil {
		return TempUser{}, fmt.Errorf("load temp users: %w", err)
	}

	tu := TempUser{
		ID:        "temp-" + uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}

	if err := s.tempUsers.Save(ctx, append(tempUsers, tu)); err != nil {
		s.logger.Error("failed to save temp user", zap.String("temp_user_id", tu.ID), zap.Error(err))
		return TempUser{}, fmt.Errorf("failed to save temp users: %w", err)
	}

	return tu, nil
}

func (s *Service) ListTempUsers(ctx context.Context) ([]TempUser, error) {
	return s.tempUsers.Load(ctx)
}

func (s *Service) GetTempUser(ctx context.Context, id string) (TempUser, error) {
	tempUsers, err := s.tempUsers.Load(ctx)
	if err != nil {
		return TempUser{}, fmt.Errorf("load temp users: %w", err)
	}
	for _, tu := range tempUsers {
		if tu.ID == id {
			return tu, nil
		}
	}
	return TempUser{}, ErrTempUserNotFound
}

// TempUserUpdate holds the optional fields of a temp user update.
type TempUserUpdate struct {
	Name   *string
	Email  *string
	Active *bool
}

func (s *Service) UpdateTempUser(ctx context.Context, id string, upd TempUserUpdate) (TempUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempUsers, err := s.tempUsers.Load(ctx)
	if err != nil {
		return TempUser{}, fmt.Errorf("load temp users: %w", err)
	}

	for i := range tempUsers {
		if tempUsers[i].ID != id {
			continue
		}
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return TempUser{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
			}
			tempUsers[i].Name = name
		}
		if upd.Email != nil {
			tempUsers[i].Email = strings.TrimSpace(*upd.Email)
		}
		if upd.Active != nil {
			tempUsers[i].Active = *upd.Active
		}
		if err := s.tempUsers.Save(ctx, tempUsers); err != nil {
			return TempUser{}, fmt.Errorf("failed to save temp users: %w", err)
		}
		return tempUsers[i], nil
	}

	return TempUser{}, ErrTempUserNotFound
}

func (s *Service) DeleteTempUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempUsers, err := s.tempUsers.Load(ctx)
	if err != nil {
		return fmt.Errorf("load temp users: %w", err)
	}

	for i := range tempUsers {
		if tempUsers[i].ID == id {
			tempUsers = append(tempUsers[:i], tempUsers[i+1:]...)
			if err := s.tempUsers.Save(ctx, tempUsers); err != nil {
				return fmt.Errorf("failed to save temp users: %w", err)
			}
			s.logger.Info("temp user deleted", zap.String("temp_user_id", id))
			return nil
		}
	}

	return ErrTempUserNotFound
}

func (s *Service) adminIdentity() Identity {
	name := s.admin.Name
	if name == "" {
		name = "Administrator"
	}
	return Identity{
		ID:    "admin-1",
		Email: s.admin.Email,
		Name:  name,
		Role:  RoleAdmin,
	}
}

func randomCode() (string, error) {
	// 100000..999999
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()+100000), nil
}
