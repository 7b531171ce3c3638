package pgrepo

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"
)

// convertErr приводит ошибку к стандартному виду для слоя репозитория.
// Добавляет форматированное сообщение контекста, тип ошибки и оригинальное сообщение.
// Особенности:
//   - pgx.ErrNoRows превращается в domain.ErrRecordNotFound.
//   - Нарушение уникальности (uniqueViolationCode) превращается в domain.ErrDuplicateKey.
//   - Все остальные ошибки возвращаются как domain.ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	var pgErr *pgconn.PgError
	errType := domain.ErrUnknown

	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		errType = domain.ErrDuplicateKey
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}

// notFoundIfNoRows возвращает domain.ErrRecordNotFound, если запрос не затронул ни одной строки.
func notFoundIfNoRows(tag pgconn.CommandTag, format string, formatArgs ...any) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("[repository/%s] %w", fmt.Sprintf(format, formatArgs...), domain.ErrRecordNotFound)
	}
	return nil
}
