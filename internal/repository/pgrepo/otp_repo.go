package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

// OTPRepository одноразовые коды подтверждения (email verification).
type OTPRepository struct {
	conn uow.DBTX
}

func NewOTPRepository(conn uow.DBTX) *OTPRepository {
	return &OTPRepository{conn: conn}
}

// ConsumeLatestValid находит самый свежий неиспользованный и неистекший код пользователя с таким значением
// и помечает его использованным. Возвращает false, если подходящего кода нет.
//
// Условие is_used = FALSE повторяется во внешнем UPDATE: если параллельная транзакция успела погасить
// тот же код, после снятия блокировки строка не пройдет проверку и код не будет использован дважды.
func (o *OTPRepository) ConsumeLatestValid(ctx context.Context, userID int64, code string, now time.Time) (bool, error) {
	tag, err := o.conn.Exec(ctx,
		`UPDATE email_verifications SET is_used = TRUE
		WHERE is_used = FALSE AND id = (
			SELECT id FROM email_verifications
			WHERE user_id = $1 AND code = $2 AND is_used = FALSE AND expiry_date > $3
			ORDER BY created_at DESC, id DESC
			LIMIT 1
			FOR UPDATE
		)`,
		userID, code, now,
	)
	if err != nil {
		return false, convertErr(err, "consuming otp of user %d", userID)
	}
	return tag.RowsAffected() == 1, nil
}
