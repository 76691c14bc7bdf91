package backup

import (
	"context"
	"time"
)

type (
	// Info describes an archived backup.
	Info struct {
		Key          string    `json:"key"`
		Size         int64     `json:"size"`
		LastModified time.Time `json:"lastModified"`
	}

	// Store archives backup files under keys.
	Store interface {
		Put(ctx context.Context, key string, data []byte) (Info, error)
		Get(ctx context.Context, key string) ([]byte, error)
		// List returns the backups sorted by key (oldest first, keys embed the date).
		List(ctx context.Context) ([]Info, error)
	}
)
