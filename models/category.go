package models

// Category represents an object category.
// Categories are created by the seeder and are read-only through the API.
type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (c *Category) TableName() string {
	return "categories"
}
