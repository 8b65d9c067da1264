package entity

import "time"

type CopyStatus string

const (
	CopyAvailable   CopyStatus = "AVAILABLE"
	CopyIssued      CopyStatus = "ISSUED"
	CopyMaintenance CopyStatus = "MAINTENANCE"
	CopyLost        CopyStatus = "LOST"
	CopyDamaged     CopyStatus = "DAMAGED"
)

// CopyCondition is the physical condition reported when a copy changes hands.
type CopyCondition string

const (
	ConditionGood    CopyCondition = "GOOD"
	ConditionWorn    CopyCondition = "WORN"
	ConditionDamaged CopyCondition = "DAMAGED"
	ConditionLost    CopyCondition = "LOST"
)

// BookCopy is one physical unit of a book. CopyNumber is sequential within
// the owning book, so a copy can be addressed as "title #3" on a shelf label.
type BookCopy struct {
	ID            string        `json:"id"`
	BookID        string        `json:"book_id"`
	CopyNumber    int           `json:"copy_number"`
	Status        CopyStatus    `json:"status"`
	Condition     CopyCondition `json:"condition"`
	ShelfLocation string        `json:"shelf_location,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
