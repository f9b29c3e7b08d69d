package sessions

import (
	"context"

	"github.com/dream-ai/docuchat/internal/db"
)

// PostgresBackend stores sessions in the sessions table
type PostgresBackend struct {
	db *db.DB
}

// DialPostgres opens a pool; the sessions table comes from the embedded migrations.
func DialPostgres(ctx context.Context, connString string) (*PostgresBackend, error) {
	conn, err := db.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresBackend{db: conn}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.Pool().Ping(ctx)
}

func (b *PostgresBackend) Put(ctx context.Context, id string, data []byte) error {
	return b.db.UpsertSession(ctx, id, data)
}

func (b *PostgresBackend) Get(ctx context.Context, id string) ([]byte, bool, error) {
	return b.db.GetSession(ctx, id)
}

func (b *PostgresBackend) Remove(ctx context.Context, id string) (bool, error) {
	return b.db.DeleteSession(ctx, id)
}

func (b *PostgresBackend) Keys(ctx context.Context) ([]string, error) {
	return b.db.ListSessions(ctx)
}

func (b *PostgresBackend) Close(context.Context) error {
	b.db.Close()
	return nil
}
