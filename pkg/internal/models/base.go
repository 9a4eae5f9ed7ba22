package models

import "time"

// BaseModel uses string primary keys because identifiers travel across
// nodes inside URLs; a remote row keeps its id when mirrored here. Deletes
// are hard, the manual cascades leave nothing to resurrect.
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
