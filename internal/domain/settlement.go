package domain

import "time"

// SettlementEstimate is the latest estimated fair settlement value for a
// product. A product with no estimate is not tradable and is never quoted.
type SettlementEstimate struct {
	Product   string    `json:"product"`
	Value     int64     `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
