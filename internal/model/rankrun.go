package model

import (
	"encoding/json"
	"time"
)

// RankRun is a persisted ranking result.
type RankRun struct {
	ID        string          `json:"id"`
	DealCount int             `json:"dealCount"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}
