package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

const ChannelOrderPlaced = "orders.placed.v1"

const (
	StatusPending   = "PENDING"
	StatusPublished = "PUBLISHED"
	StatusFailed    = "FAILED"
)

var ErrNotFound = errors.New("outbox event not found")

// OutboxEvent is one row of:
//
//	CREATE TABLE outbox (
//	  id BIGINT AUTO_INCREMENT PRIMARY KEY,
//	  channel VARCHAR(64) NOT NULL,
//	  payload JSON NOT NULL,
//	  status VARCHAR(16) NOT NULL,
//	  retry_count INT NOT NULL DEFAULT 0,
//	  next_attempt_at DATETIME NOT NULL,
//	  created_at DATETIME NOT NULL,
//	  published_at DATETIME NULL,
//	  KEY idx_outbox_pending (status, next_attempt_at)
//	);
type OutboxEvent struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
}

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) InsertOrderPlaced(ctx context.Context, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())
`, ChannelOrderPlaced, payload)
	return err
}

// FetchPending returns due events, oldest first.
func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, payload, retry_count
FROM outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.Channel, &e.Payload, &e.RetryCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	return r.setStatus(ctx, `
UPDATE outbox SET status = 'PUBLISHED', published_at = NOW()
WHERE id = ? AND status = 'PENDING'`, id)
}

// MarkRetry pushes the event back by delay and counts the attempt.
func (r *MySQLOutboxRepo) MarkRetry(ctx context.Context, id int64, delay time.Duration) error {
	return r.setStatus(ctx, `
UPDATE outbox SET retry_count = retry_count + 1, next_attempt_at = DATE_ADD(NOW(), INTERVAL ? SECOND)
WHERE id = ? AND status = 'PENDING'`, int64(delay/time.Second), id)
}

func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	return r.setStatus(ctx, `
UPDATE outbox SET status = 'FAILED', retry_count = retry_count + 1
WHERE id = ? AND status = 'PENDING'`, id)
}

func (r *MySQLOutboxRepo) setStatus(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
