package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/playnest/marketplace/internal/domain"
	apperrors "github.com/playnest/marketplace/pkg/errors"
)

func newTestUserService(
	userRepo *mockUserRepository,
	refreshTokenRepo *mockRefreshTokenRepository,
) *UserService {
	logger := newTestLogger()
	return NewUserService(userRepo, refreshTokenRepo, newTestJWTManager(), nil, newTestEventProducer(), logger)
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	refreshTokenRepo.On("Create", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	input := RegisterInput{
		Email:     "john@example.com",
		Password:  "SecurePass123",
		FirstName: "John",
		LastName:  "Doe",
	}

	user, tokens, err := svc.Register(ctx, input)

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.Zero(t, user.AverageRating)
	assert.NotEqual(t, "SecurePass123", user.PasswordHash)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	userRepo.AssertExpectations(t)
	refreshTokenRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "john@example.com"))

	_, _, err := svc.Register(ctx, RegisterInput{
		Email:     "john@example.com",
		Password:  "SecurePass123",
		FirstName: "John",
		LastName:  "Doe",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRefreshTokenRepository))
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "securepass123"},
		{"no lowercase", "SECUREPASS123"},
		{"no digit", "SecurePassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, RegisterInput{
				Email:     "john@example.com",
				Password:  tt.password,
				FirstName: "John",
				LastName:  "Doe",
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRefreshTokenRepository))
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Password: "SecurePass123", FirstName: "John", LastName: "Doe"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "john@example.com", Password: "SecurePass123", LastName: "Doe"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	stored := &domain.User{
		ID:           "user-1",
		Email:        "john@example.com",
		PasswordHash: hashForTest("SecurePass123"),
		Role:         domain.RoleCustomer,
	}
	userRepo.On("GetByEmail", ctx, "john@example.com").Return(stored, nil)
	refreshTokenRepo.On("Create", ctx, "user-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	user, tokens, err := svc.Login(ctx, LoginInput{Email: "john@example.com", Password: "SecurePass123"})

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	stored := &domain.User{
		ID:           "user-1",
		Email:        "john@example.com",
		PasswordHash: hashForTest("SecurePass123"),
	}
	userRepo.On("GetByEmail", ctx, "john@example.com").Return(stored, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "john@example.com", Password: "WrongPass123"})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.NotFound("user", "ghost@example.com"))

	_, _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "SecurePass123"})

	// Unknown email and wrong password are indistinguishable to the caller.
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Refresh / Logout Tests ---

func TestRefreshToken_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	refreshToken, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)

	stored := &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	refreshTokenRepo.On("GetByHash", ctx, hashToken(refreshToken)).Return(stored, nil)
	refreshTokenRepo.On("Revoke", ctx, hashToken(refreshToken)).Return(nil)
	userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Email: "john@example.com", Role: domain.RoleCustomer}, nil)
	refreshTokenRepo.On("Create", ctx, "user-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	tokens, err := svc.RefreshToken(ctx, refreshToken)

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	refreshTokenRepo.AssertExpectations(t)
}

func TestRefreshToken_Revoked(t *testing.T) {
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(new(mockUserRepository), refreshTokenRepo)
	ctx := context.Background()

	refreshToken, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)

	revokedAt := time.Now().Add(-time.Minute)
	stored := &domain.RefreshToken{
		UserID:    "user-1",
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(time.Hour),
		RevokedAt: &revokedAt,
	}
	refreshTokenRepo.On("GetByHash", ctx, hashToken(refreshToken)).Return(stored, nil)

	_, err = svc.RefreshToken(ctx, refreshToken)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefreshToken_Garbage(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRefreshTokenRepository))

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogout_RevokesToken(t *testing.T) {
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(new(mockUserRepository), refreshTokenRepo)
	ctx := context.Background()

	refreshTokenRepo.On("Revoke", ctx, hashToken("some-refresh-token")).Return(nil)

	require.NoError(t, svc.Logout(ctx, "some-refresh-token"))
	refreshTokenRepo.AssertExpectations(t)
}

func TestLogout_EmptyTokenIsNoop(t *testing.T) {
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(new(mockUserRepository), refreshTokenRepo)

	require.NoError(t, svc.Logout(context.Background(), ""))
	refreshTokenRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

// --- Password Change Tests ---

func TestChangePassword_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	stored := &domain.User{ID: "user-1", PasswordHash: hashForTest("OldSecret123")}
	userRepo.On("GetByID", ctx, "user-1").Return(stored, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	refreshTokenRepo.On("RevokeByUserID", ctx, "user-1").Return(nil)

	err := svc.ChangePassword(ctx, "user-1", "OldSecret123", "NewSecret456")

	require.NoError(t, err)
	userRepo.AssertExpectations(t)
	refreshTokenRepo.AssertExpectations(t)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	stored := &domain.User{ID: "user-1", PasswordHash: hashForTest("OldSecret123")}
	userRepo.On("GetByID", ctx, "user-1").Return(stored, nil)

	err := svc.ChangePassword(ctx, "user-1", "WrongSecret123", "NewSecret456")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestChangePassword_SameAsCurrent(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRefreshTokenRepository))

	err := svc.ChangePassword(context.Background(), "user-1", "Secret123", "Secret123")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Profile Tests ---

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	stored := &domain.User{ID: "user-1", FirstName: "John", LastName: "Doe", Phone: "555-0100"}
	userRepo.On("GetByID", ctx, "user-1").Return(stored, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{FirstName: strPtr("Jane")})

	require.NoError(t, err)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "555-0100", user.Phone)
}

func TestUpdateProfile_EmptyNameRejected(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", FirstName: "John"}, nil)

	_, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{FirstName: strPtr("")})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Admin Tests ---

func TestCreateUser_InvalidRole(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRefreshTokenRepository))

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email:     "jane@example.com",
		Password:  "SecurePass123",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "superuser",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateUser_AdminRole(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Email:     "admin@example.com",
		Password:  "SecurePass123",
		FirstName: "Jane",
		LastName:  "Admin",
		Role:      domain.RoleAdmin,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestDeleteUser_CascadeRevokesSessions(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	userRepo.On("DeleteWithReviewCascade", ctx, "user-2").Return([]string{"prod-1", "prod-2"}, nil)
	refreshTokenRepo.On("RevokeByUserID", ctx, "user-2").Return(nil)

	err := svc.DeleteUser(ctx, "admin-1", "user-2")

	require.NoError(t, err)
	userRepo.AssertExpectations(t)
	refreshTokenRepo.AssertExpectations(t)
}

func TestDeleteUser_SelfDeletionForbidden(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))

	err := svc.DeleteUser(context.Background(), "admin-1", "admin-1")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	userRepo.AssertNotCalled(t, "DeleteWithReviewCascade", mock.Anything, mock.Anything)
}

func TestDeleteUser_NotFound(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshTokenRepo := new(mockRefreshTokenRepository)
	svc := newTestUserService(userRepo, refreshTokenRepo)
	ctx := context.Background()

	userRepo.On("DeleteWithReviewCascade", ctx, "ghost").Return(nil, apperrors.NotFound("user", "ghost"))

	err := svc.DeleteUser(ctx, "admin-1", "ghost")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRefreshTokenRepository))
	ctx := context.Background()

	userRepo.On("List", ctx, 20, 0).Return([]domain.User{{ID: "user-1"}, {ID: "user-2"}}, 2, nil)

	users, total, err := svc.ListUsers(ctx, 20, 0)

	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, total)
}
