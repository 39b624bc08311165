package seeder

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func newMockSeeder(t *testing.T, seed int64) (*Seeder, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	return New(db, rand.New(rand.NewSource(seed)), log), mock
}

func expectReset(mock sqlmock.Sqlmock) {
	for _, stmt := range []string{
		"SET session_replication_role = replica",
		"DELETE FROM object_categories",
		"DELETE FROM objects",
		"DELETE FROM categories",
		"SET session_replication_role = DEFAULT",
		"ALTER SEQUENCE categories_id_seq RESTART WITH 1",
		"ALTER SEQUENCE objects_id_seq RESTART WITH 1",
	} {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

// --- Tests ---

func TestResetStatementOrder(t *testing.T) {
	s, mock := newMockSeeder(t, 1)
	expectReset(mock)

	require.NoError(t, s.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetTwiceIsIdempotent(t *testing.T) {
	s, mock := newMockSeeder(t, 1)
	expectReset(mock)
	expectReset(mock)

	require.NoError(t, s.Reset(context.Background()))
	require.NoError(t, s.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRestoresSessionRoleOnFailure(t *testing.T) {
	s, mock := newMockSeeder(t, 1)

	mock.ExpectExec(regexp.QuoteMeta("SET session_replication_role = replica")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM object_categories")).
		WillReturnError(errors.New("table locked"))
	// The session must be switched back before the connection is pooled again.
	mock.ExpectExec(regexp.QuoteMeta("SET session_replication_role = DEFAULT")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Reset(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCategoriesSingleInsert(t *testing.T) {
	s, mock := newMockSeeder(t, 1)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories (name) VALUES ($1), ($2), ($3)")).
		WithArgs("Category 1", "Category 2", "Category 3").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.SeedCategories(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedObjectsBatchBoundaries(t *testing.T) {
	s, mock := newMockSeeder(t, 1)
	s.ObjectBatchSize = 100

	// 250 objects with a batch size of 100 must flush as 100 + 100 + 50,
	// each batch in its own transaction.
	copyStmt := regexp.QuoteMeta(pq.CopyIn("objects", "name", "description", "price", "created_date"))
	next := 1
	for _, batch := range []int{100, 100, 50} {
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(copyStmt)
		for i := 0; i < batch; i++ {
			if next == 1 {
				prep.ExpectExec().
					WithArgs("Object 1", "Description for Object 1", sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			} else {
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
			}
			next++
		}
		// The empty exec that flushes the COPY buffer.
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}

	require.NoError(t, s.SeedObjects(context.Background(), 250))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedObjectsAbortsOnBatchFailure(t *testing.T) {
	s, mock := newMockSeeder(t, 1)
	s.ObjectBatchSize = 10

	copyStmt := regexp.QuoteMeta(pq.CopyIn("objects", "name", "description", "price", "created_date"))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(copyStmt)
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SeedObjects(context.Background(), 25)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedAssociationsBatching(t *testing.T) {
	const seed = 42
	s, mock := newMockSeeder(t, seed)
	s.AssociationBatchSize = 7

	objectIDs := make([]int64, 50)
	for i := range objectIDs {
		objectIDs[i] = int64(i + 1)
	}
	categoryIDs := []int64{1, 2, 3, 4, 5}

	// Replay the same rng to learn how many rows the seeder will write, then
	// expect them partitioned into full batches plus a final partial flush.
	replay := rand.New(rand.NewSource(seed))
	rows := 0
	for range objectIDs {
		rows += len(pickCategories(replay, categoryIDs))
	}
	require.Positive(t, rows)

	copyStmt := regexp.QuoteMeta(pq.CopyIn("object_categories", "object_id", "category_id"))
	for remaining := rows; remaining > 0; {
		batch := min(remaining, s.AssociationBatchSize)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(copyStmt)
		for i := 0; i < batch; i++ {
			prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
		}
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		remaining -= batch
	}

	require.NoError(t, s.SeedAssociations(context.Background(), objectIDs, categoryIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}
