package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the documents table. It is applied by EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_created_idx ON documents (collection, created_at);
`

const (
	documentsTable = "documents"

	// NotifyChannel carries the collection name of every change.
	NotifyChannel = "documents_changed"
)

// Querier is the subset of pgx used for queries; satisfied by *pgxpool.Pool,
// pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Postgres is a DocumentStore backed by a single JSONB table.
type Postgres struct {
	q      Querier
	pool   *pgxpool.Pool
	newID  func() string
	logger *slog.Logger
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithIDGenerator overrides uuid ids.
func WithIDGenerator(fn func() string) PostgresOption {
	return func(p *Postgres) { p.newID = fn }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) PostgresOption {
	return func(p *Postgres) { p.logger = l }
}

// NewPostgres creates a store on pool. Subscriptions need a dedicated
// connection and are only available with a real pool.
func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) *Postgres {
	p := NewPostgresQuerier(pool, opts...)
	p.pool = pool
	return p
}

// NewPostgresQuerier creates a store on any Querier. Subscribe returns
// ErrSubscribeUnsupported.
func NewPostgresQuerier(q Querier, opts ...PostgresOption) *Postgres {
	p := &Postgres{q: q, newID: uuid.NewString, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// EnsureSchema creates the documents table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ListAll returns every document in collection, oldest first.
func (p *Postgres) ListAll(ctx context.Context, collection string) ([]Document, error) {
	sql, args, err := builder().
		Select("id", "data").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, &PersistenceError{Op: "list", Collection: collection, Err: err}
	}

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Collection: collection, Err: err}
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, &PersistenceError{Op: "list", Collection: collection, Err: err}
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Collection: collection, Err: err}
	}
	return docs, nil
}

// Get loads a single document by primary key.
func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	sql, args, err := builder().
		Select("data").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return Document{}, &PersistenceError{Op: "get", Collection: collection, ID: id, Err: err}
	}

	var data []byte
	if err := p.q.QueryRow(ctx, sql, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return Document{}, &PersistenceError{Op: "get", Collection: collection, ID: id, Err: err}
	}
	return Document{ID: id, Data: data}, nil
}

// Create inserts data under a new id.
func (p *Postgres) Create(ctx context.Context, collection string, data any) (string, error) {
	body, err := marshalObject(data)
	if err != nil {
		return "", &PersistenceError{Op: "create", Collection: collection, Err: err}
	}

	id := p.newID()
	sql, args, err := builder().
		Insert(documentsTable).
		Columns("collection", "id", "data").
		Values(collection, id, squirrel.Expr("?::jsonb", string(body))).
		ToSql()
	if err != nil {
		return "", &PersistenceError{Op: "create", Collection: collection, Err: err}
	}

	if _, err := p.q.Exec(ctx, sql, args...); err != nil {
		return "", &PersistenceError{Op: "create", Collection: collection, Err: err}
	}
	p.notify(ctx, collection)
	return id, nil
}

// Update merges patch into the document.
func (p *Postgres) Update(ctx context.Context, collection, id string, patch any) error {
	body, err := marshalObject(patch)
	if err != nil {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: err}
	}

	sql, args, err := builder().
		Update(documentsTable).
		Set("data", squirrel.Expr("data || ?::jsonb", string(body))).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: err}
	}

	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &PersistenceError{Op: "update", Collection: collection, ID: id, Err: ErrNotFound}
	}
	p.notify(ctx, collection)
	return nil
}

// Delete removes one document.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	sql, args, err := builder().
		Delete(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return &PersistenceError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return &PersistenceError{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &PersistenceError{Op: "delete", Collection: collection, ID: id, Err: ErrNotFound}
	}
	p.notify(ctx, collection)
	return nil
}

// DeleteMany removes ids in one statement. Ids that were not deleted are
// reported in a *BatchError; a statement failure fails every id.
func (p *Postgres) DeleteMany(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := builder().
		Delete(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": ids}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return batchFailure("delete", ids, err)
	}

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return batchFailure("delete", ids, &PersistenceError{Op: "delete", Collection: collection, Err: err})
	}
	defer rows.Close()

	deleted := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return batchFailure("delete", ids, err)
		}
		deleted[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return batchFailure("delete", ids, err)
	}

	if len(deleted) > 0 {
		p.notify(ctx, collection)
	}

	var failures []ItemError
	for _, id := range ids {
		if _, ok := deleted[id]; !ok {
			failures = append(failures, ItemError{ID: id, Err: ErrNotFound})
		}
	}
	if len(failures) > 0 {
		return &BatchError{Op: "delete", Failures: failures}
	}
	return nil
}

func batchFailure(op string, ids []string, err error) *BatchError {
	failures := make([]ItemError, len(ids))
	for i, id := range ids {
		failures[i] = ItemError{ID: id, Err: err}
	}
	return &BatchError{Op: op, Failures: failures}
}

// notify is best effort; a lost notification is repaired by the next
// periodic refresh.
func (p *Postgres) notify(ctx context.Context, collection string) {
	if _, err := p.q.Exec(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, collection); err != nil {
		p.logger.Warn("pg_notify failed", "collection", collection, "error", err)
	}
}

// Subscribe listens on a dedicated pool connection and sends a fresh
// snapshot of collection after every change to it.
func (p *Postgres) Subscribe(ctx context.Context, collection string) (<-chan []Document, error) {
	if p.pool == nil {
		return nil, ErrSubscribeUnsupported
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "subscribe", Collection: collection, Err: err}
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, &PersistenceError{Op: "subscribe", Collection: collection, Err: err}
	}

	out := make(chan []Document, 1)
	go func() {
		defer close(out)
		defer conn.Release()

		send := func() bool {
			docs, err := p.ListAll(ctx, collection)
			if err != nil {
				p.logger.Warn("subscription snapshot failed", "collection", collection, "error", err)
				return ctx.Err() == nil
			}
			select {
			case out <- docs:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					p.logger.Error("subscription closed", "collection", collection, "error", err)
				}
				return
			}
			if n.Payload != collection {
				continue
			}
			if !send() {
				return
			}
		}
	}()
	return out, nil
}
