package auditlog

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
)

func TestPostgresStoreWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPostgresStore(db, "access_events")
	ts := time.Now()

	events := []domain.SensorEvent{
		{
			Allowed:    true,
			Identifier: "C495FC2984",
			Label:      "card",
			Method:     domain.MethodWhitelist,
			Timestamp:  ts,
		},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO access_events (uid, label, method, allowed, ts) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (uid, ts) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs("C495FC2984", "card", "whitelist", true, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.WriteBatch(events); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreWriteBatchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPostgresStore(db, "access_events")
	if err := store.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
