package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"
	"bidding-platform/internal/syncutils"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	AdminEmail    = "admin@biddingplatform.com"
	adminPassword = "admin123"
	UserEmail     = "user@example.com"
	userPassword  = "user123"

	minPasswordLength = 6
)

var (
	generatedNames  = []string{"Alice Johnson", "Bob Smith", "Carol Davis", "David Wilson", "Emma Brown"}
	generatedCities = []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata", "Pune", "Hyderabad"}
)

// userID derives a stable id from an email address
func userID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
}

// DemoAdmin is the built-in administrator account
func DemoAdmin() shared.User {
	return shared.User{
		ID:          userID(AdminEmail),
		Name:        "Admin User",
		Email:       AdminEmail,
		Phone:       "9876543210",
		Avatar:      "https://images.pexels.com/photos/1222271/pexels-photo-1222271.jpeg?w=100&h=100&fit=crop&crop=face",
		IsOnline:    true,
		JoinedAt:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		KYCVerified: true,
		City:        "Mumbai",
		Role:        shared.RoleAdmin,
	}
}

// DemoUser is the built-in bidder account
func DemoUser() shared.User {
	return shared.User{
		ID:          userID(UserEmail),
		Name:        "John Doe",
		Email:       UserEmail,
		Phone:       "9876543211",
		Avatar:      "https://images.pexels.com/photos/614810/pexels-photo-614810.jpeg?w=100&h=100&fit=crop&crop=face",
		IsOnline:    true,
		JoinedAt:    time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		KYCVerified: true,
		City:        "Delhi",
		Role:        shared.RoleUser,
	}
}

// MockProvider is a demo identity provider. It accepts the two built-in
// accounts and creates a bidder for any other email with a long enough
// password. It is not an authentication mechanism.
type MockProvider struct {
	mu      syncutils.RWMutex
	byID    map[uuid.UUID]*shared.User
	byEmail map[string]*shared.User
	tokens  *TokenIssuer
	clock   func() time.Time
	logger  zerolog.Logger
}

type MockProviderParams struct {
	Secret   string
	TokenTTL time.Duration
	Clock    func() time.Time
	Logger   zerolog.Logger
}

var _ outbound.IdentityProvider = (*MockProvider)(nil)

func NewMockProvider(params MockProviderParams) *MockProvider {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	p := &MockProvider{
		byID:    make(map[uuid.UUID]*shared.User),
		byEmail: make(map[string]*shared.User),
		tokens:  NewTokenIssuer(params.Secret, params.TokenTTL, clock),
		clock:   clock,
		logger:  params.Logger.With().Str("component", "identity_provider").Logger(),
	}

	admin, user := DemoAdmin(), DemoUser()
	p.add(&admin)
	p.add(&user)
	return p
}

// add registers a user. Callers must hold p.mu or own p exclusively.
func (p *MockProvider) add(u *shared.User) {
	p.byID[u.ID] = u
	p.byEmail[u.Email] = u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login resolves credentials to a user
func (p *MockProvider) Login(ctx context.Context, email, password string) (*shared.User, error) {
	email = normalizeEmail(email)

	switch {
	case email == AdminEmail && password == adminPassword:
		return p.lookup(email), nil
	case email == UserEmail && password == userPassword:
		return p.lookup(email), nil
	case email == AdminEmail || email == UserEmail:
		return nil, shared.ErrInvalidCredentials
	case email == "" || len(password) < minPasswordLength:
		return nil, shared.ErrInvalidCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byEmail[email]; ok {
		u := *existing
		return &u, nil
	}

	u := p.generate(email)
	p.add(u)
	p.logger.Info().Str("user_id", u.ID.String()).Msg("Generated demo user")

	generated := *u
	return &generated, nil
}

func (p *MockProvider) generate(email string) *shared.User {
	h := xxhash.Sum64String(email)
	return &shared.User{
		ID:          userID(email),
		Name:        generatedNames[h%uint64(len(generatedNames))],
		Email:       email,
		Phone:       fmt.Sprintf("%010d", 1000000000+h%9000000000),
		Avatar:      fmt.Sprintf("https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?w=100&h=100&fit=crop&crop=face", 1000000+h%1000000, 1000000+(h>>20)%1000000),
		IsOnline:    true,
		JoinedAt:    p.clock(),
		KYCVerified: h%10 >= 3,
		City:        generatedCities[h%uint64(len(generatedCities))],
		Role:        shared.RoleUser,
	}
}

// Register creates a bidder account. Emails already known are rejected.
func (p *MockProvider) Register(ctx context.Context, reg outbound.Registration) (*shared.User, error) {
	email := normalizeEmail(reg.Email)
	if email == "" || strings.TrimSpace(reg.Name) == "" {
		return nil, fmt.Errorf("%w: name and email are required", shared.ErrInvalidRequest)
	}
	if len(reg.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidRequest, minPasswordLength)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.byEmail[email]; taken {
		return nil, shared.ErrEmailTaken
	}

	u := p.generate(email)
	u.Name = strings.TrimSpace(reg.Name)
	u.Phone = reg.Phone
	u.City = reg.City
	u.KYCVerified = false
	p.add(u)

	p.logger.Info().Str("user_id", u.ID.String()).Msg("User registered")

	registered := *u
	return &registered, nil
}

// IssueToken creates a session token for the user
func (p *MockProvider) IssueToken(user *shared.User) (string, error) {
	return p.tokens.Issue(user)
}

// Authenticate resolves a session token back to its user
func (p *MockProvider) Authenticate(ctx context.Context, token string) (*shared.User, error) {
	claims, err := p.tokens.Validate(token)
	if err != nil {
		p.logger.Debug().Err(err).Msg("Rejected session token")
		return nil, shared.ErrUnauthenticated
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	u, ok := p.byID[id]
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	found := *u
	return &found, nil
}

func (p *MockProvider) lookup(email string) *shared.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	u := *p.byEmail[email]
	return &u
}
