package chunks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// InsertBatch persists all chunks in a single transaction. Either every chunk
// of an ingestion run lands or none of them do.
func (r *PostgresRepo) InsertBatch(ctx context.Context, batch []Chunk) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (session_id, document_id, link_id, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range batch {
		docID, linkID, err := refColumns(c.Ref)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.SessionID, docID, linkID, c.Text, pq.Array(toFloat64(c.Embedding))); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByScope returns all chunks of a session whose source is in the given
// selection. An empty selection matches nothing.
func (r *PostgresRepo) ListByScope(ctx context.Context, sessionID string, documentIDs, linkIDs []string) ([]Chunk, error) {
	query := `
		SELECT id, session_id, document_id, link_id, chunk_text, embedding, created_at
		FROM document_chunks
		WHERE session_id = $1 AND (document_id = ANY($2) OR link_id = ANY($3))
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, sessionID, pq.Array(documentIDs), pq.Array(linkIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeleteByRef(ctx context.Context, ref SourceRef) error {
	docID, linkID, err := refColumns(ref)
	if err != nil {
		return err
	}
	var res sql.Result
	if docID != nil {
		res, err = r.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID)
	} else {
		res, err = r.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE link_id = $1`, linkID)
	}
	if err != nil {
		return err
	}
	_, err = res.RowsAffected()
	return err
}

func (r *PostgresRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE session_id = $1`, sessionID).Scan(&count)
	return count, err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	return count, err
}

// refColumns maps a SourceRef onto the nullable document_id/link_id pair.
// Exactly one of the two is ever set.
func refColumns(ref SourceRef) (docID, linkID interface{}, err error) {
	switch ref.Kind() {
	case RefDocument:
		return ref.ID(), nil, nil
	case RefLink:
		return nil, ref.ID(), nil
	default:
		return nil, nil, ErrInvalidRef
	}
}

func scanChunk(rows *sql.Rows) (Chunk, error) {
	var (
		c         Chunk
		docID     sql.NullString
		linkID    sql.NullString
		embedding pq.Float64Array
	)
	if err := rows.Scan(&c.ID, &c.SessionID, &docID, &linkID, &c.Text, &embedding, &c.CreatedAt); err != nil {
		return Chunk{}, err
	}

	switch {
	case docID.Valid && !linkID.Valid:
		c.Ref = DocumentRef(docID.String)
	case linkID.Valid && !docID.Valid:
		c.Ref = LinkRef(linkID.String)
	default:
		return Chunk{}, fmt.Errorf("chunk %s: %w", c.ID, ErrInvalidRef)
	}

	c.Embedding = toFloat32(embedding)
	return c, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
