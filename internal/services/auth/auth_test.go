package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/resumia/resumia-backend/internal/lib/jwt"
	"github.com/resumia/resumia-backend/internal/lib/password"
	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) MarkUserVerified(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

type MockTaskPublisher struct {
	mock.Mock
}

func (m *MockTaskPublisher) PublishEmailTask(task models.EmailTask) error {
	args := m.Called(task)
	return args.Error(0)
}

type MockProfileCache struct {
	mock.Mock
}

func (m *MockProfileCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if data, ok := args.Get(2).([]byte); ok && args.Bool(0) {
		_ = json.Unmarshal(data, result)
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func newTestService(users *MockUserRepository, publisher *MockTaskPublisher,
	profiles *MockProfileCache) *AuthService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(users, publisher, profiles, maker, logger)
}

func TestRegister(t *testing.T) {
	cases := []struct {
		name       string
		mockSetup  func(users *MockUserRepository, publisher *MockTaskPublisher)
		wantErr    error
		wantUserID string
	}{
		{
			name: "Успешная регистрация",
			mockSetup: func(users *MockUserRepository, publisher *MockTaskPublisher) {
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "new@example.com" &&
						!u.IsVerified &&
						u.VerificationToken != nil &&
						len(*u.VerificationToken) == 32 &&
						u.Subscription.Status == models.SubscriptionStatusFree
				})).Return("user-uid-1", nil)
				publisher.On("PublishEmailTask", mock.MatchedBy(func(task models.EmailTask) bool {
					return task.Email == "new@example.com" && task.Token != ""
				})).Return(nil)
			},
			wantUserID: "user-uid-1",
		},
		{
			name: "Email уже занят",
			mockSetup: func(users *MockUserRepository, _ *MockTaskPublisher) {
				users.On("CreateUser", mock.Anything, mock.Anything).
					Return("", repository.ErrEmailTaken)
			},
			wantErr: repository.ErrEmailTaken,
		},
		{
			name: "Сбой публикации задания не отменяет регистрацию",
			mockSetup: func(users *MockUserRepository, publisher *MockTaskPublisher) {
				users.On("CreateUser", mock.Anything, mock.Anything).Return("user-uid-2", nil)
				publisher.On("PublishEmailTask", mock.Anything).Return(assert.AnError)
			},
			wantUserID: "user-uid-2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepository)
			publisher := new(MockTaskPublisher)
			profiles := new(MockProfileCache)
			tc.mockSetup(users, publisher)

			service := newTestService(users, publisher, profiles)
			uid, err := service.Register(context.Background(), "new@example.com", "New User", "password123")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantUserID, uid)
			users.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	cases := []struct {
		name      string
		token     string
		mockSetup func(users *MockUserRepository)
		wantErr   error
	}{
		{
			name:  "Успешное подтверждение почты",
			token: "validtoken",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByVerificationToken", mock.Anything, "validtoken").
					Return(&models.User{UID: "user-uid-1"}, nil)
				users.On("MarkUserVerified", mock.Anything, "user-uid-1").Return(nil)
			},
		},
		{
			name:  "Токен не найден или просрочен",
			token: "badtoken",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByVerificationToken", mock.Anything, "badtoken").
					Return(nil, repository.ErrUserNotFound)
			},
			wantErr: ErrInvalidVerificationToken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tc.mockSetup(users)

			service := newTestService(users, new(MockTaskPublisher), new(MockProfileCache))
			err := service.VerifyEmail(context.Background(), tc.token)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			users.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	hashed, err := password.GetHash("correct-password")
	require.NoError(t, err)

	verifiedUser := &models.User{
		UID:          "user-uid-1",
		Email:        "known@example.com",
		PasswordHash: hashed,
		IsVerified:   true,
	}
	unverifiedUser := &models.User{
		UID:          "user-uid-2",
		Email:        "pending@example.com",
		PasswordHash: hashed,
		IsVerified:   false,
	}

	cases := []struct {
		name      string
		email     string
		password  string
		mockSetup func(users *MockUserRepository)
		wantErr   error
	}{
		{
			name:     "Успешный вход",
			email:    "known@example.com",
			password: "correct-password",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByEmail", mock.Anything, "known@example.com").
					Return(verifiedUser, nil)
			},
		},
		{
			name:     "Неверный пароль",
			email:    "known@example.com",
			password: "wrong-password",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByEmail", mock.Anything, "known@example.com").
					Return(verifiedUser, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "Пользователь не найден",
			email:    "unknown@example.com",
			password: "correct-password",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByEmail", mock.Anything, "unknown@example.com").
					Return(nil, repository.ErrUserNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "Почта не подтверждена",
			email:    "pending@example.com",
			password: "correct-password",
			mockSetup: func(users *MockUserRepository) {
				users.On("GetUserByEmail", mock.Anything, "pending@example.com").
					Return(unverifiedUser, nil)
			},
			wantErr: ErrEmailNotVerified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tc.mockSetup(users)

			service := newTestService(users, new(MockTaskPublisher), new(MockProfileCache))
			token, user, err := service.Login(context.Background(), tc.email, tc.password)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, "user-uid-1", user.UID)

			uid, err := service.ValidateToken(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, "user-uid-1", uid)
		})
	}
}

func TestGetProfile(t *testing.T) {
	user := &models.User{
		UID:        "user-uid-1",
		Email:      "known@example.com",
		Name:       "Known User",
		IsVerified: true,
		Subscription: models.Subscription{
			Status: models.SubscriptionStatusActive,
			Plan:   models.PlanMonthly,
		},
	}

	t.Run("Профиль из кэша", func(t *testing.T) {
		profiles := new(MockProfileCache)
		cached, err := json.Marshal(user.ToProfile())
		require.NoError(t, err)
		profiles.On("Get", "user:me:user-uid-1", mock.Anything).
			Return(true, nil, cached)

		users := new(MockUserRepository)
		service := newTestService(users, new(MockTaskPublisher), profiles)

		profile, err := service.GetProfile(context.Background(), "user-uid-1")
		require.NoError(t, err)
		assert.Equal(t, "known@example.com", profile.Email)
		users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("Профиль из базы при промахе кэша", func(t *testing.T) {
		profiles := new(MockProfileCache)
		profiles.On("Get", "user:me:user-uid-1", mock.Anything).
			Return(false, nil, []byte(nil))
		profiles.On("Set", "user:me:user-uid-1", mock.Anything, 5*time.Minute).
			Return(nil)

		users := new(MockUserRepository)
		users.On("GetUser", mock.Anything, "user-uid-1").Return(user, nil)

		service := newTestService(users, new(MockTaskPublisher), profiles)

		profile, err := service.GetProfile(context.Background(), "user-uid-1")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusActive, profile.Subscription.Status)
		users.AssertExpectations(t)
		profiles.AssertExpectations(t)
	})
}
