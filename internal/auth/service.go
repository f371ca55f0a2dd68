package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/db"
	"github.com/sshadulla22/SyntaxVerse-Backend/internal/errs"
)

// User represents a user account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Service handles registration, login and token validation.
type Service struct {
	db       *db.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service. secret signs access tokens; tokenTTL
// bounds their lifetime.
func NewService(database *db.DB, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{db: database, secret: secret, tokenTTL: tokenTTL}
}

// Register creates a new account with email and password.
func (s *Service) Register(ctx context.Context, email, password string, fullName *string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.New(errs.InvalidArgument, "A valid email is required")
	}
	if password == "" {
		return nil, errs.New(errs.InvalidArgument, "A password is required")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to hash password", err)
	}

	user := &User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
		if err == nil {
			return errs.New(errs.InvalidArgument, "Email already registered")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, email, hashed_password, full_name, is_active, created_at)
			 VALUES (?, ?, ?, ?, 1, ?)`,
			user.ID, user.Email, hashed, user.FullName, user.CreatedAt.Unix())
		return err
	})
	if err != nil {
		var coded *errs.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, errs.Wrap(errs.Internal, "failed to register user", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, hashed, err := s.lookupByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		// Hash anyway so a missing account costs the same as a wrong password.
		VerifyPassword(password, "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
		return "", errs.New(errs.Unauthenticated, "Incorrect email or password")
	}
	if err != nil {
		return "", errs.Wrap(errs.Internal, "failed to look up user", err)
	}
	if !VerifyPassword(password, hashed) {
		return "", errs.New(errs.Unauthenticated, "Incorrect email or password")
	}
	if !user.IsActive {
		return "", errs.New(errs.Unauthenticated, "Inactive user")
	}

	token, err := IssueToken(s.secret, user.Email, s.tokenTTL)
	if err != nil {
		return "", errs.Wrap(errs.Internal, "failed to issue token", err)
	}
	return token, nil
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*User, error) {
	email, err := ParseToken(s.secret, tokenString)
	if err != nil {
		return nil, errs.New(errs.Unauthenticated, "Could not validate credentials")
	}
	user, _, err := s.lookupByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.Unauthenticated, "Could not validate credentials")
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to look up user", err)
	}
	if !user.IsActive {
		return nil, errs.New(errs.Unauthenticated, "Inactive user")
	}
	return user, nil
}

func (s *Service) lookupByEmail(ctx context.Context, email string) (*User, string, error) {
	var user User
	var fullName sql.NullString
	var isActive int64
	var createdAt int64
	var hashed string
	err := s.db.SQL().QueryRowContext(ctx,
		"SELECT id, email, hashed_password, full_name, is_active, created_at FROM users WHERE email = ?",
		email).Scan(&user.ID, &user.Email, &hashed, &fullName, &isActive, &createdAt)
	if err != nil {
		return nil, "", err
	}
	if fullName.Valid {
		v := fullName.String
		user.FullName = &v
	}
	user.IsActive = isActive != 0
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, hashed, nil
}
