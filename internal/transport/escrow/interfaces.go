package escrow

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
)

type Releaser interface {
	DueForRelease(ctx context.Context, limit uint) ([]int64, error)
	Release(ctx context.Context, id int64) (bool, error)
}
