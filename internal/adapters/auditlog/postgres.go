// Package auditlog persists access decisions to Postgres so the box keeps a
// queryable history beyond the live MQTT feed.
package auditlog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
)

type PostgresStore struct {
	db        *sql.DB
	tableName string
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, tableName: table}
}

func (s *PostgresStore) Name() string { return "postgres" }

// WriteBatch inserts access events idempotently; duplicates on the
// (uid, ts) key are skipped so writer retries stay safe.
func (s *PostgresStore) WriteBatch(events []domain.SensorEvent) error {
	if len(events) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.tableName)
	b.WriteString(" (uid, label, method, allowed, ts) VALUES ")

	args := make([]any, 0, len(events)*5)
	for i, e := range events {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args,
			e.Identifier,
			e.Label,
			string(e.Method),
			e.Allowed,
			e.Timestamp,
		)
	}

	b.WriteString(" ON CONFLICT (uid, ts) DO NOTHING")

	_, err := s.db.Exec(b.String(), args...)
	return err
}
