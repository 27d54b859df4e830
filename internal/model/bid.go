package model

import "time"

// Bid is one contractor's proposal against an open project. Index is the
// position within the project's bid list and is what selectBid addresses.
type Bid struct {
	ProjectID      int       `json:"project_id"`
	Index          int       `json:"index"`
	Bidder         int       `json:"bidder"`
	Amount         int64     `json:"amount"`
	CompletionDays int       `json:"completion_days"`
	Milestones     []int64   `json:"milestones"`
	CreatedAt      time.Time `json:"created_at"`
}
