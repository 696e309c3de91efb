package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/image-gallery/internal/domain"
	"github.com/msomdec/image-gallery/internal/repository/sqlite"
	"github.com/msomdec/image-gallery/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	return service.NewAuthService(db.Users(), testJWTSecret, 4), db
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)

	user, err := auth.Register(context.Background(), "newuser", "password123", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup", "password123", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, "dup", "password456", "password456")
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if domain.KindOf(err) != domain.KindAlreadyExists {
		t.Fatalf("expected AlreadyExists kind, got %s", domain.KindOf(err))
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		confirm  string
	}{
		{"empty username", "", "password123", "password123"},
		{"short username", "ab", "password123", "password123"},
		{"username with slash", "a/b/c", "password123", "password123"},
		{"weak password", "weakling", "short", "short"},
		{"mismatch", "mismatch", "password123", "different456"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.username, tc.password, tc.confirm)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "login", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := auth.Login(ctx, "login", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "wrongpw", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := auth.Login(ctx, "wrongpw", "wrongpassword")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.Login(context.Background(), "nobody", "password123")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_JWT_GenerateAndValidate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "jwtuser", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := auth.Login(ctx, "jwtuser", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	username, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if username != "jwtuser" {
		t.Fatalf("expected username jwtuser, got %q", username)
	}
}

func TestAuthService_JWT_InvalidToken(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.ValidateToken("not-a-valid-jwt")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_JWT_TamperedToken(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "tamper", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.Login(ctx, "tamper", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Tamper with the token by flipping several characters in the signature.
	tampered := token[:len(token)-5] + "XXXXX"
	if _, err := auth.ValidateToken(tampered); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func TestAuthService_JWT_WrongSecret(t *testing.T) {
	auth1, db := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth1.Register(ctx, "secret", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth1.Login(ctx, "secret", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	auth2 := service.NewAuthService(db.Users(), "a-different-secret-that-is-long-enough", 4)
	if _, err := auth2.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

func TestAuthService_JWT_Expired(t *testing.T) {
	auth, _ := newTestAuthService(t)

	claims := jwt.RegisteredClaims{
		Subject:   "expired",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuthService_JWT_RejectsNoneAlgorithm(t *testing.T) {
	auth, _ := newTestAuthService(t)

	claims := jwt.RegisteredClaims{
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unsigned token, got %v", err)
	}
}
