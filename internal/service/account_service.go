package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"llm-insurance/internal/domain"
	"llm-insurance/internal/email"
	"llm-insurance/internal/repository"
)

var (
	ErrDuplicateUser       = errors.New("user id already taken")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// AccountService coordina alta, login, logout y perfil de cuentas.
// No toma locks propios: la unicidad y atomicidad las garantiza el store.
type AccountService struct {
	logger      *zap.Logger
	accounts    repository.AccountRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	emailSender email.Sender
	now         func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAccountService(
	logger *zap.Logger,
	accounts repository.AccountRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	emailSender email.Sender,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AccountService{
		logger:      logger,
		accounts:    accounts,
		hasher:      hasher,
		tokens:      tokens,
		emailSender: emailSender,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if hasher != nil {
		s.fallbackHash()
	}
	return s
}

type SignupInput struct {
	UserID        string
	Password      string
	Email         string
	Name          string
	PhoneNumber   string
	BirthDate     time.Time
	Gender        domain.Gender
	IsMarried     bool
	Job           string
	Diseases      []string
	Subscriptions []string
}

// ProfileUpdateInput usa nil para "campo ausente".
type ProfileUpdateInput struct {
	Email         *string
	Name          *string
	PhoneNumber   *string
	BirthDate     *time.Time
	Gender        *domain.Gender
	IsMarried     *bool
	Job           *string
	Diseases      []string
	Subscriptions []string
}

type LoginResult struct {
	AccessToken string
	Profile     domain.Profile
}

func (s *AccountService) CheckUserIDAvailable(ctx context.Context, userID string) (bool, error) {
	exists, err := s.accounts.ExistsByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	s.logger.Info("user id availability checked", zap.String("user_id", userID), zap.Bool("available", !exists))
	return !exists, nil
}

func (s *AccountService) Signup(ctx context.Context, input SignupInput) error {
	userID := strings.TrimSpace(input.UserID)
	available, err := s.CheckUserIDAvailable(ctx, userID)
	if err != nil {
		return err
	}
	if !available {
		return ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := domain.NewAccount(domain.NewAccountParams{
		ID:            uuid.NewString(),
		UserID:        userID,
		PasswordHash:  hash,
		Email:         strings.TrimSpace(input.Email),
		Name:          strings.TrimSpace(input.Name),
		PhoneNumber:   strings.TrimSpace(input.PhoneNumber),
		BirthDate:     input.BirthDate,
		Gender:        input.Gender,
		IsMarried:     input.IsMarried,
		Job:           strings.TrimSpace(input.Job),
		Diseases:      input.Diseases,
		Subscriptions: input.Subscriptions,
	}, s.now())

	if err := s.accounts.Create(ctx, account); err != nil {
		if isIntegrityError(err) {
			s.logger.Warn("signup integrity violation", zap.String("user_id", userID), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrDuplicateUser, ErrPersistenceConflict)
		}
		return err
	}
	s.logger.Info("account signed up", zap.String("user_id", userID))

	s.sendWelcome(ctx, account)
	return nil
}

func (s *AccountService) Login(ctx context.Context, userID, password string) (LoginResult, error) {
	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// iguala el costo del camino con cuenta existente
			_ = s.hasher.Verify(password, s.fallbackHash())
		}
		return LoginResult{}, err
	}

	if err := s.hasher.Verify(password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}

	account.IsLoggedIn = true
	account.ModifiedAt = s.now()
	if err := s.save(ctx, account); err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(account.UserID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("account logged in", zap.String("user_id", account.UserID))
	return LoginResult{AccessToken: token, Profile: account.Profile()}, nil
}

// Logout es idempotente: repetirlo no es un error.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		return err
	}
	account.IsLoggedIn = false
	account.ModifiedAt = s.now()
	if err := s.save(ctx, account); err != nil {
		return err
	}
	s.logger.Info("account logged out", zap.String("user_id", account.UserID))
	return nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return account.Profile(), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (domain.Profile, error) {
	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	applyProfileUpdate(&account, input)
	account.ModifiedAt = s.now()

	if err := s.save(ctx, account); err != nil {
		return domain.Profile{}, err
	}
	s.logger.Info("profile updated", zap.String("user_id", account.UserID))
	return account.Profile(), nil
}

// Deactivate marca la cuenta como borrada. No hay transicion de vuelta: las
// escrituras posteriores sobre la cuenta no afectan filas en el store.
func (s *AccountService) Deactivate(ctx context.Context, userID string) error {
	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		return err
	}
	account.ModifiedAt = s.now()
	if err := s.accounts.SoftDelete(ctx, account); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	s.logger.Info("account deactivated", zap.String("user_id", account.UserID))
	return nil
}

func applyProfileUpdate(account *domain.Account, input ProfileUpdateInput) {
	if input.Email != nil {
		account.Email = strings.TrimSpace(*input.Email)
	}
	if input.Name != nil {
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.PhoneNumber != nil {
		account.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.BirthDate != nil {
		account.BirthDate = *input.BirthDate
	}
	if input.Gender != nil {
		account.Gender = *input.Gender
	}
	if input.IsMarried != nil {
		account.IsMarried = *input.IsMarried
	}
	if input.Job != nil {
		account.Job = strings.TrimSpace(*input.Job)
	}
	if input.Diseases != nil {
		account.Diseases = domain.CloneTags(input.Diseases)
	}
	if input.Subscriptions != nil {
		account.Subscriptions = domain.CloneTags(input.Subscriptions)
	}
}

// activeAccount resuelve una cuenta existente y no borrada.
func (s *AccountService) activeAccount(ctx context.Context, userID string) (domain.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Account{}, ErrAccountNotFound
	}
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	if !account.Active() {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) save(ctx context.Context, account domain.Account) error {
	if err := s.accounts.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrAccountNotFound
		case isIntegrityError(err):
			s.logger.Warn("account update integrity violation", zap.String("user_id", account.UserID), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrPersistenceConflict, err)
		default:
			return err
		}
	}
	return nil
}

func (s *AccountService) sendWelcome(ctx context.Context, account domain.Account) {
	if s.emailSender == nil {
		return
	}
	if err := s.emailSender.SendSignupWelcome(ctx, account.Email, account.Name); err != nil {
		if errors.Is(err, email.ErrSenderDisabled) {
			s.logger.Debug("welcome email skipped", zap.String("user_id", account.UserID))
			return
		}
		s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("user_id", account.UserID))
	}
}

// fallbackHash devuelve el hash usado para igualar el costo del login sin cuenta.
// Si no se pudo construir, se reintenta en la siguiente llamada.
func (s *AccountService) fallbackHash() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("build fallback password hash failed", zap.Error(err))
			return ""
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

func isIntegrityError(err error) bool {
	return errors.Is(err, repository.ErrUniqueViolation) || errors.Is(err, repository.ErrConstraintViolation)
}
