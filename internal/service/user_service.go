package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the JWT claims issued at login. Subject holds the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ErrInvalidToken
	}
	return id, nil
}

// UserService manages users and authentication.
type UserService struct {
	db         Database
	log        *logrus.Logger
	jwtSecret  []byte
	jwtTTL     time.Duration
	bcryptCost int
	now        func() time.Time
}

func validateRawPassword(raw string) error {
	if len(raw) < models.PasswordMinLength {
		return apperror.BusinessRule("password must be at least %d characters (actual: %d)", models.PasswordMinLength, len(raw))
	}
	if len(raw) > models.PasswordMaxLength {
		return apperror.BusinessRule("password must be at most %d bytes (actual: %d)", models.PasswordMaxLength, len(raw))
	}
	return nil
}

func (s *UserService) hashPassword(raw string) (models.Password, error) {
	if err := validateRawPassword(raw); err != nil {
		return models.Password{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), s.bcryptCost)
	if err != nil {
		return models.Password{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return models.NewPassword(string(hashed))
}

func (s *UserService) checkEmailUnique(ctx context.Context, email models.Email) error {
	_, err := s.db.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return apperror.ErrEmailExists
	case errors.Is(err, apperror.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *UserService) create(ctx context.Context, rawEmail, rawPassword string, role models.Role) (*models.User, error) {
	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailUnique(ctx, email); err != nil {
		return nil, err
	}
	password, err := s.hashPassword(rawPassword)
	if err != nil {
		return nil, err
	}
	user, err := models.NewUser(email, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser registers a new ROLE_USER account on behalf of an administrator.
func (s *UserService) CreateUser(ctx context.Context, adminID int64, email, password string) (*models.User, error) {
	if err := requireAdmin(ctx, s.db, adminID, "create new user"); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, email, password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "admin_id": adminID}).Info("User created")
	return user, nil
}

// BootstrapAdmin creates the initial administrator unless a user with that
// email already exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) (*models.User, error) {
	addr, err := models.NewEmail(email)
	if err != nil {
		return nil, err
	}
	existing, err := s.db.FindUserByEmail(ctx, addr)
	if err == nil {
		if !existing.IsAdmin() {
			return nil, apperror.BusinessRule("bootstrap user %d exists but is not an administrator", existing.ID)
		}
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}

	admin, err := s.create(ctx, email, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", admin.ID).Info("Administrator created")
	return admin, nil
}

// GetUser returns any user to an administrator.
func (s *UserService) GetUser(ctx context.Context, adminID, userID int64) (*models.User, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get user"); err != nil {
		return nil, err
	}
	return s.db.FindUserByID(ctx, userID)
}

// ListUsers returns one page of users to an administrator.
func (s *UserService) ListUsers(ctx context.Context, adminID int64, page models.Page) (models.PageResult[*models.User], error) {
	if err := page.ValidateUserSort(); err != nil {
		return models.PageResult[*models.User]{}, err
	}
	if err := requireAdmin(ctx, s.db, adminID, "get all users"); err != nil {
		return models.PageResult[*models.User]{}, err
	}
	return s.db.ListUsers(ctx, page)
}

// DeleteUser removes a user that owns no cards.
func (s *UserService) DeleteUser(ctx context.Context, adminID, userID int64) error {
	if err := validateID(userID, "user id"); err != nil {
		return err
	}
	if err := requireAdmin(ctx, s.db, adminID, "delete user"); err != nil {
		return err
	}
	if adminID == userID {
		return apperror.BusinessRule("administrator cannot delete own account")
	}
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID}).Info("User deleted")
	return nil
}

// UpdateEmail changes the caller's email.
func (s *UserService) UpdateEmail(ctx context.Context, userID int64, rawEmail string) (*models.User, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}
	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailUnique(ctx, email); err != nil {
		return nil, err
	}
	user, err := s.db.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = email
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", userID).Info("User email updated")
	return user, nil
}

// UpdatePassword changes the caller's password.
func (s *UserService) UpdatePassword(ctx context.Context, userID int64, rawPassword string) (*models.User, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}
	password, err := s.hashPassword(rawPassword)
	if err != nil {
		return nil, err
	}
	user, err := s.db.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Password = password
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", userID).Info("User password updated")
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, rawEmail, password string) (string, error) {
	email, err := models.NewEmail(rawEmail)
	if err != nil {
		return "", apperror.ErrInvalidCredentials
	}
	user, err := s.db.FindUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return "", apperror.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password.Hash()), []byte(password)); err != nil {
		return "", apperror.ErrInvalidCredentials
	}

	// Generate JWT
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return tokenString, nil
}

// ParseToken validates a token issued by Login.
func (s *UserService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperror.ErrInvalidToken.WithCause(err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}
