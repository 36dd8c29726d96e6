package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
	score       int
	winStreak   int
	groupID     *uuid.UUID
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password:    "testpassword123",
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithScore sets the starting cumulative score
func (b *UserBuilder) WithScore(score int) *UserBuilder {
	b.score = score
	return b
}

// WithWinStreak sets the starting consecutive-win counter
func (b *UserBuilder) WithWinStreak(streak int) *UserBuilder {
	b.winStreak = streak
	return b
}

// WithGroup places the user in a group
func (b *UserBuilder) WithGroup(groupID uuid.UUID) *UserBuilder {
	b.groupID = &groupID
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		Score:        b.score,
		WinStreak:    b.winStreak,
		GroupID:      b.groupID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Score       int    `json:"score"`
		WinStreak   int    `json:"winStreak"`
		Coins       int    `json:"coins"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate creates a user via API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		DisplayName: authResp.User.DisplayName,
	}

	return user, authResp.AccessToken
}

// NewMemUser creates a user directly in an in-memory repo.
func NewMemUser(t *testing.T, repo *MemUserRepo, name string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:          uuid.New(),
		DisplayName: name,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.Create(t.Context(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// NewTransaction inserts a ledger entry into an in-memory repo.
func NewTransaction(t *testing.T, repo *MemTransactionRepo, userID uuid.UUID, amount int, at time.Time) *domain.CoinTransaction {
	t.Helper()

	txn := &domain.CoinTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Source:    domain.TransactionSourceManual,
		CreatedAt: at,
	}
	if err := repo.Create(t.Context(), txn); err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}
	return txn
}
