package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/api/pkg/password"
	"github.com/edutrack/edutrack/api/pkg/tokens"
	"github.com/edutrack/edutrack/common/logging"
)

const (
	testSecret     = "test-secret-that-is-long-enough"
	testPassword   = "correct horse battery"
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingHasher records how many verifications ran.
type countingHasher struct {
	password.Hasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.Hasher.Verify(plaintext, hash)
}

func (h *countingHasher) Verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type testEnv struct {
	svc    *AuthService
	repo   *repository.InMemoryRepository
	codec  *tokens.Codec
	hasher *countingHasher
	clock  *fakeClock
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       testSecret,
		JWTAlgorithm:    tokens.DefaultAlgorithm,
		Issuer:          "edutrack",
		AccessTokenTTL:  testAccessTTL,
		RefreshTokenTTL: testRefreshTTL,
		BcryptCost:      bcrypt.MinCost,
	}
}

func newTestCodec(t *testing.T, clock *fakeClock) *tokens.Codec {
	t.Helper()
	codec, err := tokens.NewCodec(tokens.Config{Secret: testSecret, Issuer: "edutrack", Now: clock.Now})
	require.NoError(t, err)
	return codec
}

func newTestHasher(t *testing.T) *countingHasher {
	t.Helper()
	h, err := password.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return &countingHasher{Hasher: h}
}

func setupAuth(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := newFakeClock()
	repo := repository.NewInMemoryRepository()
	codec := newTestCodec(t, clock)
	hasher := newTestHasher(t)

	base := []Option{WithClock(clock.Now), WithLogger(logging.Discard())}
	svc, err := NewAuthService(repo, codec, hasher, testAuthConfig(), append(base, opts...)...)
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, codec: codec, hasher: hasher, clock: clock}
}

func registerRequest(email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  testPassword,
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), registerRequest(email))
	require.NoError(t, err)
	return user
}

// mockUserRepository lets tests inject store failures.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
