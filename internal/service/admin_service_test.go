package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"estate-market/internal/domain"
	"estate-market/internal/repository"
)

type mockAdminRepo struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]domain.Admin
	byEmail   map[string]int64
	createErr error
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{
		byID:    make(map[int64]domain.Admin),
		byEmail: make(map[string]int64),
	}
}

func (m *mockAdminRepo) Create(_ context.Context, admin domain.Admin) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	if _, ok := m.byEmail[admin.Email]; ok {
		return 0, repository.ErrDuplicate
	}
	m.nextID++
	admin.ID = m.nextID
	m.byID[admin.ID] = admin
	m.byEmail[admin.Email] = admin.ID
	return admin.ID, nil
}

func (m *mockAdminRepo) GetByID(_ context.Context, id int64) (domain.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, ok := m.byID[id]
	if !ok {
		return domain.Admin{}, pgx.ErrNoRows
	}
	return admin, nil
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (domain.Admin, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.Admin{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func TestAdminService_RegisterAndAuthenticate(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	stored := repo.byID[id]
	if stored.PasswordHash == "s3cret" || stored.PasswordHash == "" {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}
	if cost, err := bcrypt.Cost([]byte(stored.PasswordHash)); err != nil || cost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d (%v)", cost, err)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	admin, err := svc.Authenticate(ctx, "ana@example.com", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if admin.ID != id || admin.Name != "Ana" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if admin.PasswordHash != "" {
		t.Fatalf("expected hash to be stripped from result")
	}
}

func TestAdminService_HashesAreSalted(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "same"})
	if err != nil {
		t.Fatalf("register a: %v", err)
	}
	b, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "same"})
	if err != nil {
		t.Fatalf("register b: %v", err)
	}
	if repo.byID[a].PasswordHash == repo.byID[b].PasswordHash {
		t.Fatalf("expected different hashes for the same password")
	}
}

func TestAdminService_RegisterValidation(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), newMockAdminRepo(), nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: " ", Email: "ana@example.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError")
	}
	if len(vErr.Fields) != 2 || vErr.Fields[0] != "name" || vErr.Fields[1] != "password" {
		t.Fatalf("unexpected missing fields: %v", vErr.Fields)
	}

	_, err = svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@x.com", Password: "   "})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected blank password to be rejected, got %v", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0] != "password" {
		t.Fatalf("unexpected missing fields: %v", vErr.Fields)
	}
}

func TestAdminService_RegisterKeepsPasswordSpaces(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), newMockAdminRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: " pass "}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "a@x.com", "pass"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected the untrimmed password to be hashed, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "a@x.com", " pass "); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestAdminService_RegisterDuplicate(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "x"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "Ana 2", Email: "ana@example.com", Password: "y"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	// los emails distinguen mayusculas
	if _, err := svc.Register(ctx, RegisterInput{Name: "Ana 3", Email: "Ana@example.com", Password: "z"}); err != nil {
		t.Fatalf("expected case-different email to register, got %v", err)
	}
}

func TestAdminService_RegisterDuplicateRace(t *testing.T) {
	repo := newMockAdminRepo()
	repo.createErr = repository.ErrDuplicate
	svc := NewAdminService(zap.NewNop(), repo, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "x"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail from unique index, got %v", err)
	}
}

func TestAdminService_AuthenticateErrors(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "right"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "nobody@example.com", "right"); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ANA@example.com", "right"); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected case-sensitive lookup, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdminService_AuthenticateInvalidHash(t *testing.T) {
	repo := newMockAdminRepo()
	if _, err := repo.Create(context.Background(), domain.Admin{Name: "Old", Email: "old@example.com", PasswordHash: "plaintext"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewAdminService(zap.NewNop(), repo, nil)

	if _, err := svc.Authenticate(context.Background(), "old@example.com", "plaintext"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestAdminService_AuthenticateRateLimited(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, NewLoginLimiter(0, 2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Authenticate(ctx, "ana@example.com", "x"); !errors.Is(err, ErrAdminNotFound) {
			t.Fatalf("attempt %d: expected ErrAdminNotFound, got %v", i, err)
		}
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAdminService_RepeatedCorrectLogins(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), newMockAdminRepo(), NewLoginLimiter(10*time.Minute, 5))
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 1; i <= 10; i++ {
		if _, err := svc.AuthenticateFrom(ctx, "10.0.0.1", "a@x.com", "secret123"); err != nil {
			t.Fatalf("login #%d: %v", i, err)
		}
	}
}

func TestAdminService_SuccessClearsFailures(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), newMockAdminRepo(), NewLoginLimiter(10*time.Minute, 5))
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			if _, err := svc.AuthenticateFrom(ctx, "10.0.0.1", "a@x.com", "typo"); !errors.Is(err, ErrWrongPassword) {
				t.Fatalf("round %d attempt %d: expected ErrWrongPassword, got %v", round, i, err)
			}
		}
		if _, err := svc.AuthenticateFrom(ctx, "10.0.0.1", "a@x.com", "secret123"); err != nil {
			t.Fatalf("round %d: correct login after failures: %v", round, err)
		}
	}
}

func TestAdminService_FailuresFromOtherClientDoNotLockOwner(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), newMockAdminRepo(), NewLoginLimiter(10*time.Minute, 5))
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.AuthenticateFrom(ctx, "203.0.113.9", "a@x.com", "guess"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("guess %d: expected ErrWrongPassword, got %v", i, err)
		}
	}
	if _, err := svc.AuthenticateFrom(ctx, "203.0.113.9", "a@x.com", "guess"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected guessing client to be limited, got %v", err)
	}
	if _, err := svc.AuthenticateFrom(ctx, "10.0.0.1", "a@x.com", "secret123"); err != nil {
		t.Fatalf("owner login: %v", err)
	}
}

func TestAdminService_InvalidHashIsNotCountedAsFailure(t *testing.T) {
	repo := newMockAdminRepo()
	if _, err := repo.Create(context.Background(), domain.Admin{Name: "Old", Email: "old@example.com", PasswordHash: "plaintext"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewAdminService(zap.NewNop(), repo, NewLoginLimiter(time.Minute, 1))

	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate(context.Background(), "old@example.com", "plaintext"); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("attempt %d: expected ErrInvalidHash, got %v", i, err)
		}
	}
}

func TestAdminService_Profile(t *testing.T) {
	repo := newMockAdminRepo()
	svc := NewAdminService(zap.NewNop(), repo, nil)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	admin, err := svc.Profile(ctx, id)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if admin.Email != "ana@example.com" || admin.PasswordHash != "" {
		t.Fatalf("unexpected profile: %+v", admin)
	}
	if _, err := svc.Profile(ctx, id+100); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}
