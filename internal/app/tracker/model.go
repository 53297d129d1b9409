package tracker

import "time"

// WorkSession is one completed work interval. Append-only: rows are written
// when a timer ends (or minutes arrive pre-computed) and never updated.
type WorkSession struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Date      string    `gorm:"not null;index" json:"date"`
	Minutes   int       `gorm:"not null" json:"minutes"`
	CreatedAt time.Time `gorm:"type:timestamp;not null" json:"created_at"`
}

// UserState is the per-user transient row the state machine runs on.
// Both timestamps are stored naive and re-anchored to the configured
// timezone on read. start_time is non-nil only while a timer is open;
// blocked_until is lazily cleared once expired.
type UserState struct {
	UserID       int64      `gorm:"primaryKey" json:"user_id"`
	StartTime    *time.Time `gorm:"type:timestamp" json:"start_time"`
	BlockedUntil *time.Time `gorm:"type:timestamp" json:"blocked_until"`
}

func (WorkSession) TableName() string { return "work_sessions" }

func (UserState) TableName() string { return "user_states" }
