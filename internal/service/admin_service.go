package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"estate-market/internal/domain"
	"estate-market/internal/repository"
)

const passwordCost = 10

// AdminService coordina registro y autenticacion de administradores.
type AdminService struct {
	logger  *zap.Logger
	admins  repository.AdminRepository
	limiter LoginLimiter
	now     func() time.Time
}

func NewAdminService(logger *zap.Logger, admins repository.AdminRepository, limiter LoginLimiter) *AdminService {
	return &AdminService{
		logger:  logger,
		admins:  admins,
		limiter: limiter,
		now:     time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register crea un administrador y devuelve su id. El email se compara de forma exacta.
func (s *AdminService) Register(ctx context.Context, input RegisterInput) (int64, error) {
	if s.admins == nil {
		return 0, errors.New("admin service not configured")
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(input.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return 0, newValidationError("All fields are required", missing)
	}

	_, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return 0, ErrDuplicateEmail
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.admins.Create(ctx, domain.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// dos registros concurrentes con el mismo email
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("create admin: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("admin registered", zap.Int64("admin_id", id))
	}
	return id, nil
}

// Authenticate verifica las credenciales y devuelve el administrador sin su hash.
func (s *AdminService) Authenticate(ctx context.Context, email, password string) (domain.Admin, error) {
	return s.AuthenticateFrom(ctx, "", email, password)
}

// AuthenticateFrom es Authenticate con los fallos contados por cliente y email.
func (s *AdminService) AuthenticateFrom(ctx context.Context, client, email, password string) (domain.Admin, error) {
	if s.admins == nil {
		return domain.Admin{}, errors.New("admin service not configured")
	}
	email = strings.TrimSpace(email)

	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return domain.Admin{}, newValidationError("Email and password are required", missing)
	}

	key := loginKey(client, email)
	if s.limiter != nil && !s.limiter.Allow(key) {
		return domain.Admin{}, ErrRateLimited
	}

	admin, err := s.verify(ctx, email, password)
	if s.limiter != nil {
		switch {
		case err == nil:
			s.limiter.Reset(key)
		case errors.Is(err, ErrAdminNotFound), errors.Is(err, ErrWrongPassword):
			s.limiter.Fail(key)
		}
	}
	return admin, err
}

func (s *AdminService) verify(ctx context.Context, email, password string) (domain.Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Admin{}, ErrAdminNotFound
		}
		return domain.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}

	if _, err := bcrypt.Cost([]byte(admin.PasswordHash)); err != nil {
		if s.logger != nil {
			s.logger.Error("stored password hash is malformed", zap.Int64("admin_id", admin.ID))
		}
		return domain.Admin{}, ErrInvalidHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Admin{}, ErrWrongPassword
		}
		return domain.Admin{}, ErrInvalidHash
	}

	admin.PasswordHash = ""
	return admin, nil
}

func loginKey(client, email string) string {
	client = strings.TrimSpace(client)
	if client == "" {
		return email
	}
	return client + "|" + email
}

func (s *AdminService) Profile(ctx context.Context, id int64) (domain.Admin, error) {
	if s.admins == nil {
		return domain.Admin{}, errors.New("admin service not configured")
	}
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Admin{}, ErrAdminNotFound
		}
		return domain.Admin{}, fmt.Errorf("load admin: %w", err)
	}
	admin.PasswordHash = ""
	return admin, nil
}
