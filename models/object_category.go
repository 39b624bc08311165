package models

// ObjectCategory is one association row in the many-to-many join table.
// The composite primary key guarantees at most one link per (object, category) pair.
type ObjectCategory struct {
	ObjectID   uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
}

func (oc *ObjectCategory) TableName() string {
	return "object_categories"
}
