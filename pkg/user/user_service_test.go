package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paragon-backend/domain"
	"paragon-backend/entities"
	"paragon-backend/pkg/jwt"
)

type fakeUserRepo struct {
	users []*entities.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	for _, user := range f.users {
		if user.ID.String() == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *entities.User) error {
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestUserService(repo *fakeUserRepo) UserService {
	return NewUserService(repo, jwt.NewJWTService(), testLogger())
}

func TestRegister(t *testing.T) {
	repo := &fakeUserRepo{}
	service := newTestUserService(repo)

	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Anna",
		Email:    "anna@example.com",
		Password: "secretsecret",
	})
	require.NoError(t, err)

	assert.Equal(t, "Anna", res.Name)
	assert.Equal(t, "anna@example.com", res.Email)
	assert.NotEmpty(t, res.ID)

	require.Len(t, repo.users, 1)
	stored := repo.users[0]
	assert.Equal(t, domain.RoleUser, stored.Role)
	assert.NotEqual(t, "secretsecret", stored.Password, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secretsecret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{}
	service := newTestUserService(repo)

	req := domain.RegisterRequest{Name: "Anna", Email: "anna@example.com", Password: "secretsecret"}
	_, err := service.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	repo := &fakeUserRepo{}
	service := newTestUserService(repo)

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Anna",
		Email:    "anna@example.com",
		Password: "secretsecret",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		res, err := service.Login(context.Background(), domain.LoginRequest{
			Email:    "anna@example.com",
			Password: "secretsecret",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, domain.RoleUser, res.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(context.Background(), domain.LoginRequest{
			Email:    "anna@example.com",
			Password: "wrong-password",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(context.Background(), domain.LoginRequest{
			Email:    "nobody@example.com",
			Password: "secretsecret",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestMe(t *testing.T) {
	repo := &fakeUserRepo{}
	service := newTestUserService(repo)

	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Anna",
		Email:    "anna@example.com",
		Password: "secretsecret",
	})
	require.NoError(t, err)

	me, err := service.Me(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", me.Email)
	assert.Equal(t, domain.RoleUser, me.Role)
	assert.False(t, me.IsVerified)

	_, err = service.Me(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestVerifyEmail(t *testing.T) {
	repo := &fakeUserRepo{}
	jwtService := jwt.NewJWTService()
	service := NewUserService(repo, jwtService, testLogger())

	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Name:     "Anna",
		Email:    "anna@example.com",
		Password: "secretsecret",
	})
	require.NoError(t, err)

	token := jwtService.GenerateTokenUser(res.ID, domain.RoleUser)
	require.NoError(t, service.VerifyEmail(context.Background(), token))
	assert.True(t, repo.users[0].IsVerified)

	err = service.VerifyEmail(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
