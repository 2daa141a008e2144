package users

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

const minPinLength = 4

// Service checks cashier PINs. PINs are kept as bcrypt hashes, so a login
// compares the candidate against every user.
type Service struct {
	db     *DB
	logger *logger.Logger
	cost   int
}

func NewService(db *bun.DB, log *logger.Logger) *Service {
	return &Service{db: NewDB(db), logger: log, cost: bcrypt.DefaultCost}
}

// CheckLoginPin returns the matching user, or nil when no user has that PIN.
// Lookup failures are logged and treated as no match.
func (s *Service) CheckLoginPin(ctx context.Context, pin string) *models.User {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil
	}
	users, err := s.db.ListUsers(ctx)
	if err != nil {
		s.logger.Error("AUTH", fmt.Sprintf("Login query error: %v", err))
		return nil
	}
	for i := range users {
		u := &users[i]
		if s.matches(ctx, u, pin) {
			s.logger.Info("AUTH", fmt.Sprintf("User #%d (%s) logged in", u.ID, u.Name))
			return &models.User{ID: u.ID, Name: u.Name}
		}
	}
	s.logger.LogSecurity("login", "PIN did not match any user")
	return nil
}

// matches compares pin with the stored password. Rows written before hashing
// are upgraded to a bcrypt hash on their first successful login.
func (s *Service) matches(ctx context.Context, u *models.User, pin string) bool {
	if isBcrypt(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(pin)) == nil
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(pin)) != 1 {
		return false
	}
	if hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost); err == nil {
		if err := s.db.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
			s.logger.Warn("AUTH", fmt.Sprintf("Could not upgrade PIN hash for user #%d: %v", u.ID, err))
		}
	}
	return true
}

// CreateUser stores a new cashier with a hashed PIN. PINs must be unique
// because login identifies the user by PIN alone.
func (s *Service) CreateUser(ctx context.Context, name, pin string) (*models.User, error) {
	const op = "CreateUser"
	name = strings.TrimSpace(name)
	pin = strings.TrimSpace(pin)
	if name == "" {
		return nil, apperr.Validation(op, "Name is required.")
	}
	if len(pin) < minPinLength {
		return nil, apperr.Validation(op, "PIN must be at least %d characters.", minPinLength)
	}

	existing, err := s.db.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	for i := range existing {
		if s.matches(ctx, &existing[i], pin) {
			return nil, apperr.Conflict(op, "PIN already in use")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	u := &models.User{Name: name, Password: string(hash)}
	if err := s.db.InsertUser(ctx, u); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	s.logger.LogDatabase("INSERT", "users", fmt.Sprintf("#%d %s", u.ID, u.Name))
	return u, nil
}

func isBcrypt(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}
