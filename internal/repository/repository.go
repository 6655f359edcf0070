package repository

import (
	"context"
	"fmt"
	"net/url"

	"field_visits/internal/domain"
	"field_visits/internal/repository/memory"
	"field_visits/internal/repository/mongo"
	"field_visits/internal/repository/postgres"
	mongodb "field_visits/pkg/db/mongo"
	pgdb "field_visits/pkg/db/postgres"
)

// Open выбирает хранилище по схеме URI и открывает одно общее соединение на процесс.
func Open(ctx context.Context, uri, dbName string) (domain.VisitRepo, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse store uri: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		db, err := pgdb.NewGormConnection(uri)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewVisitRepository(db)
		if err := repo.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return repo, nil

	case "mongodb", "mongodb+srv":
		client, err := mongodb.NewConnection(ctx, uri)
		if err != nil {
			return nil, err
		}
		return mongo.NewVisitRepository(client, dbName), nil

	case "memory":
		return memory.NewVisitRepository(), nil

	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
