package models

import "github.com/uptrace/bun"

const DefaultProductIcon = "fas fa-utensils"

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID       int64   `bun:"id,pk,autoincrement" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	Code     string  `bun:"code,nullzero" json:"code"`
	Category string  `bun:"category" json:"category"`
	Price    float64 `bun:"price,notnull" json:"price"`
	Image    string  `bun:"image" json:"image"`
}

// ProductInput is the body of add/update-product. IconClass maps to Product.Image.
type ProductInput struct {
	ID        int64   `json:"id,omitempty"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	IconClass string  `json:"icon_class"`
}

type Category struct {
	bun.BaseModel `bun:"table:category"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,unique,notnull" json:"name"`
}

// Desk is a table in the dining room. The SQL table is called desk.
type Desk struct {
	bun.BaseModel `bun:"table:desk"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,unique,notnull" json:"name"`
}

type NameInput struct {
	Name string `json:"name"`
}
