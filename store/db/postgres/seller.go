package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/snovalley/buyer-agent/store"
)

// sellerTableDDL matches the schema the agent framework expects: JSONB for
// metadata/filters/usage, a 1536-dimension embedding, and a content hash
// used to skip re-embedding unchanged listings.
const sellerTableDDL = `CREATE TABLE IF NOT EXISTS ai.sellers (
	id           TEXT PRIMARY KEY,
	name         TEXT,
	meta_data    JSONB NOT NULL DEFAULT '{}',
	filters      JSONB NOT NULL DEFAULT '{}',
	content      TEXT,
	embedding    VECTOR(1536),
	usage        JSONB NOT NULL DEFAULT '{}',
	content_hash TEXT
)`

// ensureSellerStmts creates the schema objects when missing. The vector
// extension must exist before the table's VECTOR column can be created.
var ensureSellerStmts = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE SCHEMA IF NOT EXISTS ai`,
	sellerTableDDL,
}

// resetSellerStmts drops and recreates the table, keeping the vector
// extension enabled throughout.
var resetSellerStmts = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE SCHEMA IF NOT EXISTS ai`,
	`DROP TABLE IF EXISTS ai.sellers`,
	sellerTableDDL,
}

func (d *DB) EnsureSellerTable(ctx context.Context) error {
	for _, s := range ensureSellerStmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, "ensure sellers table")
		}
	}
	return nil
}

func (d *DB) ResetSellerTable(ctx context.Context) error {
	for _, s := range resetSellerStmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return errors.Wrap(err, "reset sellers table")
		}
	}
	return nil
}

func (d *DB) UpsertSeller(ctx context.Context, upsert *store.Seller) (*store.Seller, error) {
	metadata, err := marshalJSONB(upsert.Metadata)
	if err != nil {
		return nil, err
	}
	filters, err := marshalJSONB(upsert.Filters)
	if err != nil {
		return nil, err
	}
	usage, err := marshalJSONB(upsert.Usage)
	if err != nil {
		return nil, err
	}

	stmt := `INSERT INTO ai.sellers (id, name, meta_data, filters, content, embedding, usage, content_hash)
	         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	         ON CONFLICT (id) DO UPDATE SET
	             name = EXCLUDED.name,
	             meta_data = EXCLUDED.meta_data,
	             filters = EXCLUDED.filters,
	             content = EXCLUDED.content,
	             embedding = EXCLUDED.embedding,
	             usage = EXCLUDED.usage,
	             content_hash = EXCLUDED.content_hash`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.ID, upsert.Name, metadata, filters, upsert.Content,
		pgvector.NewVector(upsert.Embedding), usage, upsert.ContentHash,
	); err != nil {
		return nil, errors.Wrap(err, "upsert seller")
	}
	return upsert, nil
}

func (d *DB) ListSellers(ctx context.Context, find *store.FindSeller) ([]*store.Seller, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, name, meta_data, filters, content, usage, content_hash
		 FROM ai.sellers WHERE %s ORDER BY name ASC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list sellers")
	}
	defer rows.Close()

	var list []*store.Seller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, seller)
	}
	return list, rows.Err()
}

func (d *DB) GetSeller(ctx context.Context, find *store.FindSeller) (*store.Seller, error) {
	list, err := d.ListSellers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) SearchSellers(ctx context.Context, embedding []float32, limit int) ([]*store.SellerMatch, error) {
	query := `SELECT id, name, meta_data, filters, content, usage, content_hash,
	                 embedding <=> $1 AS distance
	          FROM ai.sellers
	          WHERE embedding IS NOT NULL
	          ORDER BY embedding <=> $1 ASC
	          LIMIT $2`
	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, errors.Wrap(err, "search sellers")
	}
	defer rows.Close()

	var list []*store.SellerMatch
	for rows.Next() {
		s := &store.Seller{}
		var metadata, filters, usage []byte
		var name, content, contentHash sql.NullString
		var distance float32
		if err := rows.Scan(&s.ID, &name, &metadata, &filters, &content, &usage, &contentHash, &distance); err != nil {
			return nil, errors.Wrap(err, "scan seller match")
		}
		s.Name, s.Content, s.ContentHash = name.String, content.String, contentHash.String
		if err := unmarshalJSONB(metadata, &s.Metadata); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(filters, &s.Filters); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(usage, &s.Usage); err != nil {
			return nil, err
		}
		list = append(list, &store.SellerMatch{Seller: s, Distance: distance})
	}
	return list, rows.Err()
}

func (d *DB) CountSellers(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai.sellers`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count sellers")
	}
	return count, nil
}

func scanSeller(rows *sql.Rows) (*store.Seller, error) {
	s := &store.Seller{}
	var metadata, filters, usage []byte
	var name, content, contentHash sql.NullString
	if err := rows.Scan(&s.ID, &name, &metadata, &filters, &content, &usage, &contentHash); err != nil {
		return nil, errors.Wrap(err, "scan seller")
	}
	s.Name, s.Content, s.ContentHash = name.String, content.String, contentHash.String
	if err := unmarshalJSONB(metadata, &s.Metadata); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(filters, &s.Filters); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(usage, &s.Usage); err != nil {
		return nil, err
	}
	return s, nil
}

func marshalJSONB(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshal jsonb")
	}
	return b, nil
}

func unmarshalJSONB(b []byte, dst *map[string]any) error {
	if len(b) == 0 {
		*dst = map[string]any{}
		return nil
	}
	return errors.Wrap(json.Unmarshal(b, dst), "unmarshal jsonb")
}
