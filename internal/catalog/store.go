package catalog

import (
	"context"
	"time"
)

type Product struct {
	ID          string  `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(64)"`
	Name        string  `json:"name" bson:"name" gorm:"not null"`
	Price       float64 `json:"price" bson:"price" gorm:"not null"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// Store is the storage gateway in front of the product collection. Implementations
// report a missing record as ErrNotFound and wrap every other failure in a *StorageError.
type Store interface {
	Create(ctx context.Context, p Product) error
	ListAll(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
