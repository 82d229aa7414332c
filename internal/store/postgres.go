package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"firmflow/config"
)

// Postgres keeps every collection in a single jsonb table:
//
//	CREATE TABLE documents (
//	    collection text NOT NULL,
//	    id         text NOT NULL,
//	    doc        jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now(),
//	    PRIMARY KEY (collection, id)
//	);
//	CREATE INDEX documents_doc_gin ON documents USING gin (doc);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens the connection pool and pings it.
func NewPostgres(cfg config.DBConfig, logger *zap.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	logger.Info("Initializing PostgreSQL connection pool",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name),
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	// pool settings
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = time.Minute
	poolCfg.ConnConfig.Tracer = NewSlowQueryTracer(logger, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer pingCancel()

	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	logger.Info("PostgreSQL connection established successfully")
	return &Postgres{pool: pool}, nil
}

// Pool exposes the underlying pool for health checks.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	query := `
        SELECT doc
        FROM documents
        WHERE collection = $1 AND id = $2
    `
	var doc json.RawMessage
	err := p.pool.QueryRow(ctx, query, collection, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) Query(ctx context.Context, collection string, filters ...Filter) ([]json.RawMessage, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT doc FROM documents WHERE collection = $1`)

	args := []any{collection}
	for _, f := range filters {
		switch f.Op {
		case OpEq:
			args = append(args, f.Value)
			fmt.Fprintf(&sb, ` AND doc->>'%s' = $%d`, f.Field, len(args))
		case OpGte:
			args = append(args, f.Value)
			fmt.Fprintf(&sb, ` AND doc->>'%s' >= $%d`, f.Field, len(args))
		case OpLte:
			args = append(args, f.Value)
			fmt.Fprintf(&sb, ` AND doc->>'%s' <= $%d`, f.Field, len(args))
		case OpContains:
			// jsonb ? 检查数组是否包含该字符串元素
			args = append(args, f.Value)
			fmt.Fprintf(&sb, ` AND doc->'%s' ? $%d`, f.Field, len(args))
		default:
			return nil, fmt.Errorf("unsupported filter op: %s", f.Op)
		}
	}

	rows, err := p.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO documents (collection, id, doc, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (collection, id)
        DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
    `
	_, err = p.pool.Exec(ctx, query, collection, id, body)
	return err
}

// SetAll writes the whole batch inside one transaction so a flow's side
// effects commit together or not at all.
func (p *Postgres) SetAll(ctx context.Context, collection string, docs map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO documents (collection, id, doc, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (collection, id)
        DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
    `
	for id, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, collection, id, body); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	query := `
        UPDATE documents
        SET doc = doc || $3, updated_at = NOW()
        WHERE collection = $1 AND id = $2
    `
	tag, err := p.pool.Exec(ctx, query, collection, id, patch)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
