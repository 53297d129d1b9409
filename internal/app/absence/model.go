package absence

import (
	"strings"
	"time"
)

type Kind string

const (
	KindSick     Kind = "SICK"
	KindVacation Kind = "VACATION"
)

// ParseKind maps free-form input onto a known absence kind. Case does not
// matter; the stored value is always the canonical uppercase form.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToUpper(s)); k {
	case KindSick, KindVacation:
		return k, true
	}
	return "", false
}

// Record marks one civil day as an absence. At most one row may exist per
// (user_id, date, kind); a duplicate insert is a no-op, not an error.
type Record struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_absences_user_date_kind" json:"user_id"`
	Date      string    `gorm:"not null;uniqueIndex:idx_absences_user_date_kind" json:"date"`
	Kind      Kind      `gorm:"column:kind;not null;uniqueIndex:idx_absences_user_date_kind" json:"kind"`
	CreatedAt time.Time `gorm:"type:timestamp;not null" json:"created_at"`
}

func (Record) TableName() string { return "absences" }
