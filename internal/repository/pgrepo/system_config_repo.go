package pgrepo

import (
	"context"

	"github.com/fsdevblog/mmo-fulfillment/pkg/uow"
)

type SystemConfigRepository struct {
	conn uow.DBTX
}

func NewSystemConfigRepository(conn uow.DBTX) *SystemConfigRepository {
	return &SystemConfigRepository{conn: conn}
}

// GetValue возвращает значение настройки или domain.ErrRecordNotFound.
func (s *SystemConfigRepository) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRow(ctx,
		`SELECT config_value FROM system_configurations WHERE config_key = $1`, key,
	).Scan(&value)
	if err != nil {
		return "", convertErr(err, "reading system config %s", key)
	}
	return value, nil
}
