// Package auth содержит логику бизнес-уровня для регистрации, подтверждения
// почты и аутентификации пользователей.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/resumia/resumia-backend/internal/cache"
	"github.com/resumia/resumia-backend/internal/lib/jwt"
	"github.com/resumia/resumia-backend/internal/lib/password"
	"github.com/resumia/resumia-backend/internal/lib/sl"
	"github.com/resumia/resumia-backend/internal/lib/token"
	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/storage/repository"
)

// ErrInvalidCredentials неверная пара email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailNotVerified почта пользователя не подтверждена.
var ErrEmailNotVerified = errors.New("email not verified")

// ErrInvalidVerificationToken токен подтверждения не найден или просрочен.
var ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

// verificationTokenTTL срок действия токена подтверждения почты.
const verificationTokenTTL = time.Hour

// profileCacheTTL срок жизни профиля пользователя в кэше.
const profileCacheTTL = 5 * time.Minute

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по его UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// GetUserByVerificationToken возвращает пользователя по действующему токену.
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)

	// MarkUserVerified помечает почту пользователя подтверждённой.
	MarkUserVerified(ctx context.Context, userUID string) error
}

// TaskPublisher описывает контракт публикации заданий на отправку писем.
type TaskPublisher interface {
	PublishEmailTask(task models.EmailTask) error
}

// ProfileCache описывает контракт кэша профилей пользователей.
type ProfileCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// AuthService отвечает за регистрацию, подтверждение почты, авторизацию и валидацию JWT.
type AuthService struct {
	users     UserRepository
	publisher TaskPublisher
	profiles  ProfileCache
	jwtMaker  jwt.Maker
	log       *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, publisher TaskPublisher, profiles ProfileCache,
	jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		publisher: publisher,
		profiles:  profiles,
		jwtMaker:  jwtMaker,
		log:       log,
	}
}

// Register создает нового пользователя с хэшированием пароля и токеном
// подтверждения почты, затем ставит задание на отправку письма.
// Сбой публикации задания не отменяет регистрацию.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	verificationToken, err := token.New(16)
	if err != nil {
		return "", err
	}
	expiry := time.Now().UTC().Add(verificationTokenTTL)
	user := models.User{
		Email:                   email,
		Name:                    name,
		PasswordHash:            hashed,
		IsVerified:              false,
		VerificationToken:       &verificationToken,
		VerificationTokenExpiry: &expiry,
		Subscription: models.Subscription{
			Status: models.SubscriptionStatusFree,
			Plan:   models.PlanFree,
		},
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return "", err
	}

	if err := s.publisher.PublishEmailTask(models.EmailTask{
		Email: email,
		Name:  name,
		Token: verificationToken,
	}); err != nil {
		s.log.Error("failed to publish verification email task",
			slog.String("user_uid", uid), sl.Err(err))
	}
	return uid, nil
}

// VerifyEmail подтверждает почту пользователя по токену из письма.
func (s *AuthService) VerifyEmail(ctx context.Context, verificationToken string) error {
	user, err := s.users.GetUserByVerificationToken(ctx, verificationToken)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}
	return s.users.MarkUserVerified(ctx, user.UID)
}

// Login проверяет пароль пользователя и генерирует JWT сессии.
// Вход разрешён только после подтверждения почты.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrEmailNotVerified
	}
	sessionToken, err := s.jwtMaker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return sessionToken, user, nil
}

// ValidateToken проверяет JWT сессии и возвращает UID пользователя.
func (s *AuthService) ValidateToken(_ context.Context, sessionToken string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(sessionToken)
	if err != nil {
		return "", err
	}
	return claims.UserUID, nil
}

// GetProfile возвращает профиль пользователя, используя кэш при наличии.
func (s *AuthService) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	key := cache.ProfileKey(userUID)

	var cached models.Profile
	found, err := s.profiles.Get(key, &cached)
	if err != nil {
		s.log.Warn("profile cache lookup failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	profile := user.ToProfile()
	if err := s.profiles.Set(key, profile, profileCacheTTL); err != nil {
		s.log.Warn("failed to cache profile", sl.Err(err))
	}
	return &profile, nil
}
