package services_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"shopnpost/internal/models"
	"shopnpost/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newAuthService(userRepo *MockUserRepository) *services.AuthService {
	return services.NewAuthService(userRepo, "test-secret", zerolog.Nop())
}

func TestAuthService_RegisterUser_HashesPasswordAndDefaultsRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := newAuthService(userRepo)

	userRepo.On("GetByUsername", "alice").Return(nil, models.ErrNotFound("user not found")).Once()
	userRepo.On("GetByEmail", "alice@example.com").Return(nil, models.ErrNotFound("user not found")).Once()
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "plaintext"}
	err := service.RegisterUser(user)

	assert.NoError(t, err)
	assert.NotEqual(t, "plaintext", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("plaintext")))
	assert.Equal(t, models.RoleUser, user.Role)
	userRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_RejectsDuplicates(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := newAuthService(userRepo)

	existing := &models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	userRepo.On("GetByUsername", "alice").Return(existing, nil).Once()
	err := service.RegisterUser(&models.User{Username: "alice", Email: "new@example.com"})
	assertKind(t, err, models.KindInvalidState)

	userRepo.On("GetByUsername", "bob").Return(nil, models.ErrNotFound("user not found")).Once()
	userRepo.On("GetByEmail", "alice@example.com").Return(existing, nil).Once()
	err = service.RegisterUser(&models.User{Username: "bob", Email: "alice@example.com"})
	assertKind(t, err, models.KindInvalidState)

	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_LoginUser_ReturnsValidToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := newAuthService(userRepo)

	hashed, err := bcrypt.GenerateFromPassword([]byte("plaintext"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	userRepo.On("GetByUsername", "alice").Return(user, nil).Once()

	token, err := service.LoginUser("alice", "plaintext")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "alice@example.com", claims["email"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
}

func TestAuthService_LoginUser_InvalidCredentials(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := newAuthService(userRepo)

	// Unknown usernames and wrong passwords look the same to the caller.
	userRepo.On("GetByUsername", "ghost").Return(nil, models.ErrNotFound("user not found")).Once()
	_, err := service.LoginUser("ghost", "whatever")
	assertKind(t, err, models.KindForbidden)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-1", Username: "alice", Password: string(hashed)}
	userRepo.On("GetByUsername", "alice").Return(user, nil).Once()
	_, err = service.LoginUser("alice", "wrong")
	assertKind(t, err, models.KindForbidden)
}

func TestAuthService_ValidateToken_RejectsGarbage(t *testing.T) {
	service := newAuthService(new(MockUserRepository))

	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)

	// A token signed with a different secret must not validate.
	other := services.NewAuthService(new(MockUserRepository), "other-secret", zerolog.Nop())
	hashed, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
	userRepo := new(MockUserRepository)
	userRepo.On("GetByUsername", "alice").Return(&models.User{ID: "user-1", Username: "alice", Password: string(hashed)}, nil).Once()
	token, err := services.NewAuthService(userRepo, "test-secret", zerolog.Nop()).LoginUser("alice", "pw")
	assert.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
