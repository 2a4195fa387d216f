package repository

import (
	"context"
	"fmt"
)

// MarkEventProcessed регистрирует событие шлюза как обработанное.
// Возвращает false, если событие уже было зарегистрировано ранее.
func (s *Storage) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	const op = "storage.MarkEventProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_events (event_id)
			  VALUES ($1)
			  ON CONFLICT (event_id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// UnmarkEventProcessed снимает отметку обработки события, чтобы повтор
// доставки от шлюза смог обработать его заново.
func (s *Storage) UnmarkEventProcessed(ctx context.Context, eventID string) error {
	const op = "storage.UnmarkEventProcessed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM processed_events WHERE event_id = $1`
	if _, err := s.DB.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
