package seeder

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	DefaultObjectBatchSize      = 100_000
	DefaultAssociationBatchSize = 50_000
)

// Seeder repopulates the catalog schema from scratch, streaming the large
// tables through the Postgres COPY protocol instead of row-by-row inserts.
// It assumes exclusive access to the schema while running and must not be
// run alongside live API traffic.
type Seeder struct {
	db  *sql.DB
	rng *rand.Rand
	log *logrus.Logger

	ObjectBatchSize      int
	AssociationBatchSize int
}

// New builds a Seeder. A nil rng falls back to a clock-seeded source, which
// makes the load non-reproducible; pass a seeded rng for determinism.
func New(db *sql.DB, rng *rand.Rand, log *logrus.Logger) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Seeder{
		db:                   db,
		rng:                  rng,
		log:                  log,
		ObjectBatchSize:      DefaultObjectBatchSize,
		AssociationBatchSize: DefaultAssociationBatchSize,
	}
}

// Run executes the full load: reset, categories, objects, associations.
// Association seeding needs the id sets of both prior steps, so the order is
// fixed. Any step failure aborts the remaining sequence.
func (s *Seeder) Run(ctx context.Context, objectCount, categoryCount int) error {
	start := time.Now()

	s.log.Info("clearing existing data")
	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	s.log.WithField("count", categoryCount).Info("seeding categories")
	if err := s.SeedCategories(ctx, categoryCount); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	s.log.WithField("count", objectCount).Info("seeding objects")
	if err := s.SeedObjects(ctx, objectCount); err != nil {
		return fmt.Errorf("seed objects: %w", err)
	}

	objectIDs, err := s.loadIDs(ctx, "objects")
	if err != nil {
		return fmt.Errorf("load object ids: %w", err)
	}
	categoryIDs, err := s.loadIDs(ctx, "categories")
	if err != nil {
		return fmt.Errorf("load category ids: %w", err)
	}

	s.log.Info("seeding object categories")
	if err := s.SeedAssociations(ctx, objectIDs, categoryIDs); err != nil {
		return fmt.Errorf("seed associations: %w", err)
	}

	s.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("seeding completed")
	return nil
}

// Reset wipes all three tables and restarts the id sequences. Constraint
// enforcement is switched off for the duration so the deletes do not pay for
// FK checks; children are still deleted before parents. Everything runs on
// one connection because session_replication_role is per-session.
func (s *Seeder) Reset(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET session_replication_role = replica"); err != nil {
		return fmt.Errorf("disable constraint checks: %w", err)
	}

	// The connection goes back to the pool on return; a bailed-out reset must
	// not leave the session in replica mode.
	restored := false
	defer func() {
		if !restored {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "SET session_replication_role = DEFAULT")
		}
	}()

	deletes := []string{
		"DELETE FROM object_categories",
		"DELETE FROM objects",
		"DELETE FROM categories",
	}
	for _, stmt := range deletes {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}

	if _, err := conn.ExecContext(ctx, "SET session_replication_role = DEFAULT"); err != nil {
		return fmt.Errorf("enable constraint checks: %w", err)
	}
	restored = true

	restarts := []string{
		"ALTER SEQUENCE categories_id_seq RESTART WITH 1",
		"ALTER SEQUENCE objects_id_seq RESTART WITH 1",
	}
	for _, stmt := range restarts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// SeedCategories inserts n categories named "Category 1".."Category n" in a
// single statement. The set is small, so no streaming is needed.
func (s *Seeder) SeedCategories(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO categories (name) VALUES ")
	args := make([]any, n)
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d)", i)
		args[i-1] = fmt.Sprintf("Category %d", i)
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// SeedObjects streams count synthetic objects through COPY in fixed-size
// batches. Each batch runs in its own transaction, so a failure leaves only
// whole batches committed.
func (s *Seeder) SeedObjects(ctx context.Context, count int) error {
	now := time.Now().UTC()

	seeded := 0
	for seeded < count {
		batch := s.ObjectBatchSize
		if remaining := count - seeded; remaining < batch {
			batch = remaining
		}
		if err := s.copyObjects(ctx, seeded+1, batch, now); err != nil {
			return err
		}
		seeded += batch
		s.log.WithField("objects", seeded).Info("seeded batch")
	}
	return nil
}

func (s *Seeder) copyObjects(ctx context.Context, first, n int, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("objects", "name", "description", "price", "created_date"))
	if err != nil {
		return err
	}

	for i := first; i < first+n; i++ {
		row := makeObject(s.rng, i, now)
		if _, err := stmt.ExecContext(ctx, row.Name, row.Description, row.Price, row.CreatedDate); err != nil {
			stmt.Close()
			return err
		}
	}

	// Empty Exec flushes the COPY buffer to the server.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

// SeedAssociations assigns each object its random category set and writes the
// resulting association rows through COPY in fixed-size batches.
func (s *Seeder) SeedAssociations(ctx context.Context, objectIDs, categoryIDs []int64) error {
	pending := make([]associationRow, 0, s.AssociationBatchSize)
	var total int64

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.copyAssociations(ctx, pending); err != nil {
			return err
		}
		total += int64(len(pending))
		pending = pending[:0]
		s.log.WithField("relations", total).Info("seeded batch")
		return nil
	}

	for _, objectID := range objectIDs {
		for _, categoryID := range pickCategories(s.rng, categoryIDs) {
			pending = append(pending, associationRow{ObjectID: objectID, CategoryID: categoryID})
			if len(pending) >= s.AssociationBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (s *Seeder) copyAssociations(ctx context.Context, rows []associationRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("object_categories", "object_id", "category_id"))
	if err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.ObjectID, row.CategoryID); err != nil {
			stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Seeder) loadIDs(ctx context.Context, table string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
