package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// objectRow is one pending row for the objects bulk path.
type objectRow struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedDate time.Time
}

// associationRow is one pending row for the object_categories bulk path.
type associationRow struct {
	ObjectID   int64
	CategoryID int64
}

// makeObject builds the i-th synthetic object: deterministic name and
// description, price uniform in [0, 1000), creation date 1 to 364 days in
// the past.
func makeObject(rng *rand.Rand, i int, now time.Time) objectRow {
	return objectRow{
		Name:        fmt.Sprintf("Object %d", i),
		Description: fmt.Sprintf("Description for Object %d", i),
		Price:       decimal.NewFromFloat(rng.Float64() * 1000).Round(2),
		CreatedDate: now.AddDate(0, 0, -(1 + rng.Intn(364))),
	}
}

// pickCategories decides the category set for one object: with probability
// 0.9 it gets 1 to 3 distinct categories sampled without replacement,
// otherwise none.
func pickCategories(rng *rand.Rand, categoryIDs []int64) []int64 {
	if rng.Float64() >= 0.9 {
		return nil
	}

	n := 1 + rng.Intn(3)
	if n > len(categoryIDs) {
		n = len(categoryIDs)
	}

	picked := make([]int64, 0, n)
	for _, idx := range rng.Perm(len(categoryIDs))[:n] {
		picked = append(picked, categoryIDs[idx])
	}
	return picked
}
