package store

import (
	"context"
	"fmt"

	"foodbank-notifier/internal/common/config"
	"foodbank-notifier/internal/common/database"
)

// Open builds the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pg.DB), nil
	case "firestore":
		fs, err := database.NewFirestore(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		return NewFirestoreStore(fs.Client), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
