package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/internal/domain"
	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

// IntentRepository журнал обработанных ключей дедупликации.
type IntentRepository struct {
	conn uow.DBTX
}

func NewIntentRepository(conn uow.DBTX) *IntentRepository {
	return &IntentRepository{conn: conn}
}

// Remember записывает ключ в рамках намерения и пользователя. false означает, что этот пользователь
// уже отправлял такое намерение с тем же ключом.
// Запись видна другим только после фиксации транзакции вместе с остальной работой обработчика.
func (i *IntentRepository) Remember(
	ctx context.Context,
	intent domain.IntentType,
	userID int64,
	dedupeKey string,
) (bool, error) {
	tag, err := i.conn.Exec(ctx,
		`INSERT INTO processed_intents (intent, user_id, dedupe_key) VALUES ($1, $2, $3)
		ON CONFLICT (intent, user_id, dedupe_key) DO NOTHING`,
		intent, userID, dedupeKey,
	)
	if err != nil {
		return false, convertErr(err, "remembering %s intent %s of user %d", intent, dedupeKey, userID)
	}
	return tag.RowsAffected() == 1, nil
}
