package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/resumia/resumia-backend/internal/models"
)

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, name, password_hash, is_verified,
			      verification_token, verification_token_expiry,
			      subscription_status, subscription_plan)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.IsVerified,
		user.VerificationToken, user.VerificationTokenExpiry,
		user.Subscription.Status, user.Subscription.Plan).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

const userColumns = `uid, email, name, password_hash, is_verified,
			      verification_token, verification_token_expiry,
			      subscription_status, subscription_plan,
			      gateway_subscription_id, current_period_end, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var verificationToken, gatewaySubscriptionID sql.NullString
	var verificationTokenExpiry, currentPeriodEnd sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.IsVerified,
		&verificationToken, &verificationTokenExpiry,
		&u.Subscription.Status, &u.Subscription.Plan,
		&gatewaySubscriptionID, &currentPeriodEnd, &u.CreatedAt); err != nil {
		return nil, err
	}

	if verificationToken.Valid {
		u.VerificationToken = &verificationToken.String
	}
	if verificationTokenExpiry.Valid {
		u.VerificationTokenExpiry = &verificationTokenExpiry.Time
	}
	if gatewaySubscriptionID.Valid {
		u.Subscription.GatewaySubscriptionID = &gatewaySubscriptionID.String
	}
	if currentPeriodEnd.Valid {
		u.Subscription.CurrentPeriodEnd = &currentPeriodEnd.Time
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByVerificationToken возвращает пользователя по действующему токену
// подтверждения почты.
func (s *Storage) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	const op = "storage.GetUserByVerificationToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE verification_token = $1
			    AND verification_token_expiry > NOW()`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// MarkUserVerified помечает почту пользователя подтверждённой и очищает токен.
func (s *Storage) MarkUserVerified(ctx context.Context, userUID string) error {
	const op = "storage.MarkUserVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_verified = TRUE,
			      verification_token = NULL,
			      verification_token_expiry = NULL
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// UpdateSubscription обновляет состояние подписки пользователя.
func (s *Storage) UpdateSubscription(ctx context.Context, userUID string, sub models.Subscription) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_plan = $2,
			      gateway_subscription_id = $3,
			      current_period_end = $4
			  WHERE uid = $5`
	res, err := s.DB.ExecContext(ctx, query,
		sub.Status, sub.Plan, sub.GatewaySubscriptionID, sub.CurrentPeriodEnd, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
