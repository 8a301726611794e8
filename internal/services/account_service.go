package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/database"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause.
var ErrInvalidCredentials = apperror.Unauthenticated("invalid credentials")

// dummyHash is compared against when the username is unknown so a failed
// lookup costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("smarttools-placeholder"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Locale   string
}

// ProfileUpdate is a partial self-service profile edit.
type ProfileUpdate struct {
	Email           *string
	Locale          *string
	CurrentPassword string
	NewPassword     string
}

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	GetAccountByID(ctx context.Context, id int64) (models.Account, error)
	ViewAccount(ctx context.Context, viewer *models.Account, id int64) (models.Account, error)
	Register(ctx context.Context, in RegisterInput) (models.Account, error)
	Authenticate(ctx context.Context, username, password string) (models.Account, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (models.Account, error)
}

// AccountService provides business logic for account management.
type AccountService struct {
	db    *sqlx.DB
	clock clock.Clock
	cost  int
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *sqlx.DB, clk clock.Clock) *AccountService {
	return &AccountService{db: db, clock: clk, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mainly to speed up tests.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.cost = cost
	return s
}

const accountColumns = "id, username, email, password_hash, balance, is_admin, locale, created_at"

// GetAccountByID retrieves a single account by its ID.
func (s *AccountService) GetAccountByID(ctx context.Context, id int64) (models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, s.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, apperror.NotFound("user not found")
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	return account, nil
}

// ViewAccount returns the account with the given id if viewer is that
// account or an admin.
func (s *AccountService) ViewAccount(ctx context.Context, viewer *models.Account, id int64) (models.Account, error) {
	if viewer == nil {
		return models.Account{}, apperror.Unauthenticated("authentication required")
	}
	if viewer.ID != id && !viewer.IsAdmin {
		return models.Account{}, apperror.Forbidden("you can only view your own account")
	}
	return s.GetAccountByID(ctx, id)
}

func (s *AccountService) getByUsername(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, s.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE username = ?"), username)
	return account, err
}

func (s *AccountService) exists(ctx context.Context, column, value string, exceptID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM accounts WHERE "+column+" = ? AND id <> ?"), value, exceptID)
	return n > 0, err
}

// Register creates a new account, hashing its password. Username conflicts
// are reported before email conflicts.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	locale := strings.TrimSpace(in.Locale)

	if username == "" || email == "" || in.Password == "" {
		return models.Account{}, apperror.Validation("username, email and password are required")
	}
	if locale == "" {
		locale = models.LocaleArabic
	}
	if !models.ValidLocale(locale) {
		return models.Account{}, apperror.Validation("unsupported language")
	}

	if err := s.checkAvailable(ctx, username, email); err != nil {
		return models.Account{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Locale:       locale,
		CreatedAt:    clock.Stamp(s.clock.Now()),
	}

	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO accounts (username, email, password_hash, balance, is_admin, locale, created_at)
		VALUES (?, ?, ?, 0, FALSE, ?, ?) RETURNING id`),
		account.Username, account.Email, account.PasswordHash, account.Locale, account.CreatedAt,
	).Scan(&account.ID)
	if database.IsUniqueViolation(err) {
		// Lost a race with a concurrent registration; report which field collided.
		if conflict := s.checkAvailable(ctx, username, email); conflict != nil {
			return models.Account{}, conflict
		}
		return models.Account{}, apperror.Conflict("account already exists")
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

func (s *AccountService) checkAvailable(ctx context.Context, username, email string) error {
	taken, err := s.exists(ctx, "username", username, 0)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return apperror.Conflict("username already exists")
	}
	taken, err = s.exists(ctx, "email", email, 0)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return apperror.Conflict("email already exists")
	}
	return nil
}

// Authenticate verifies an account's credentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (models.Account, error) {
	account, err := s.getByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return models.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// UpdateProfile changes the caller's email, language or password.
func (s *AccountService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (models.Account, error) {
	account, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return models.Account{}, err
	}

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email == "" {
			return models.Account{}, apperror.Validation("email cannot be empty")
		}
		if email != account.Email {
			taken, err := s.exists(ctx, "email", email, id)
			if err != nil {
				return models.Account{}, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return models.Account{}, apperror.Conflict("email already exists")
			}
			account.Email = email
		}
	}

	if upd.Locale != nil {
		locale := strings.TrimSpace(*upd.Locale)
		if !models.ValidLocale(locale) {
			return models.Account{}, apperror.Validation("unsupported language")
		}
		account.Locale = locale
	}

	if upd.NewPassword != "" {
		// Check if the current password is correct
		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(upd.CurrentPassword)); err != nil {
			return models.Account{}, apperror.Forbidden("current password is incorrect")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(upd.NewPassword), s.cost)
		if err != nil {
			return models.Account{}, fmt.Errorf("failed to hash new password: %w", err)
		}
		account.PasswordHash = string(hashedPassword)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind("UPDATE accounts SET email = ?, locale = ?, password_hash = ? WHERE id = ?"),
		account.Email, account.Locale, account.PasswordHash, id)
	if database.IsUniqueViolation(err) {
		return models.Account{}, apperror.Conflict("email already exists")
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to update account %d: %w", id, err)
	}
	return account, nil
}
