// Package store selects the backing-store reader the query adapter scans.
package store

import (
	"context"

	"github.com/mentneo/mentmine/pkg/query"
)

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

// Reader is a storage adapter able to return whole collections.
type Reader interface {
	Adapter
	query.Source
}
