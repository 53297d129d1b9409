package mileage

import "time"

// Record is one mileage entry: distance driven on a civil day, tagged with
// the locality it was driven in. Append-only.
type Record struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Date      string    `gorm:"not null;index" json:"date"`
	Km        float64   `gorm:"not null" json:"km"`
	Locality  string    `gorm:"not null" json:"locality"`
	CreatedAt time.Time `gorm:"type:timestamp;not null" json:"created_at"`
}

func (Record) TableName() string { return "km_records" }
