// internal/models/list.go
package models

import "time"

// ScannedListName is the system list every saved scan is added to.
const ScannedListName = "Scanned"

type ProductList struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	System    bool       `json:"system"`
	Products  []*Product `json:"products,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type SortOption string

const (
	SortByDate SortOption = "date"
	SortByName SortOption = "name"
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ListQuery selects and orders the products of one list.
type ListQuery struct {
	ListID    string
	Sort      SortOption
	Direction SortDirection
	ScanMode  ScanMode // empty means all
	Limit     int
}
