package tracker

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetState(userID int64) (*UserState, error)
	SetStartTime(userID int64, startTime *time.Time) error
	SetBlockedUntil(userID int64, blockedUntil *time.Time) error
	DeleteState(userID int64) error
	CreateSession(session *WorkSession) error
	SumMinutesByDate(userID int64, date string) (int, error)
	SumMinutesBetween(userID int64, from, to string) (int, error)
	SumMinutesMatching(userID int64, pattern string) (int, error)
	DeleteSessionsByDate(userID int64, date string) (int64, error)
	DeleteSessions(userID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetState returns the user's state row, or an empty state for a user that
// has never interacted.
func (r *repository) GetState(userID int64) (*UserState, error) {
	var state UserState
	err := r.db.Where("user_id = ?", userID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &UserState{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) SetStartTime(userID int64, startTime *time.Time) error {
	state := UserState{UserID: userID, StartTime: startTime}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_time"}),
	}).Create(&state).Error
}

func (r *repository) SetBlockedUntil(userID int64, blockedUntil *time.Time) error {
	state := UserState{UserID: userID, BlockedUntil: blockedUntil}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"blocked_until"}),
	}).Create(&state).Error
}

func (r *repository) DeleteState(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&UserState{}).Error
}

func (r *repository) CreateSession(session *WorkSession) error {
	return r.db.Create(session).Error
}

func (r *repository) SumMinutesByDate(userID int64, date string) (int, error) {
	var total int
	err := r.db.Model(&WorkSession{}).
		Where("user_id = ? AND date = ?", userID, date).
		Select("COALESCE(SUM(minutes), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumMinutesBetween(userID int64, from, to string) (int, error) {
	var total int
	err := r.db.Model(&WorkSession{}).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Select("COALESCE(SUM(minutes), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumMinutesMatching(userID int64, pattern string) (int, error) {
	var total int
	err := r.db.Model(&WorkSession{}).
		Where("user_id = ? AND date LIKE ?", userID, pattern).
		Select("COALESCE(SUM(minutes), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) DeleteSessionsByDate(userID int64, date string) (int64, error) {
	res := r.db.Where("user_id = ? AND date = ?", userID, date).Delete(&WorkSession{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteSessions(userID int64) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&WorkSession{})
	return res.RowsAffected, res.Error
}
