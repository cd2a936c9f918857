package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

// PostgresPersistence 状态存入 query_states 表，payload 为完整 JSON。
// 使用 JSON 而不是 JSONB，保留模型输出的字段顺序。
type PostgresPersistence struct {
	db *sql.DB
}

// NewPostgres 连接数据库并建表
func NewPostgres(ctx context.Context, dsn string) (*PostgresPersistence, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &PostgresPersistence{db: db}
	if err := p.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

func (p *PostgresPersistence) initSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS query_states (
		id TEXT PRIMARY KEY,
		query TEXT,
		market_domain TEXT,
		payload JSON NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (p *PostgresPersistence) Save(ctx context.Context, st *model.QueryState) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO query_states (id, query, market_domain, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET query = EXCLUDED.query, market_domain = EXCLUDED.market_domain, payload = EXCLUDED.payload`,
		st.ID, st.Query, st.MarketDomain, data)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (p *PostgresPersistence) Load(ctx context.Context, id string) (*model.QueryState, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM query_states WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(id, data)
}

func (p *PostgresPersistence) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM query_states WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (p *PostgresPersistence) Close() error {
	return p.db.Close()
}
