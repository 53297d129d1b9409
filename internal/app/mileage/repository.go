package mileage

import "gorm.io/gorm"

type Repository interface {
	Create(record *Record) error
	SumKmMatching(userID int64, pattern string) (float64, error)
	SumKmMatchingAtLocality(userID int64, pattern, locality string) (float64, error)
	SumKmMatchingElsewhere(userID int64, pattern, locality string) (float64, error)
	// ListMatching returns the month's records ordered by the date column
	// ascending. The column is DD/MM/YYYY text, so the order is
	// lexicographic; within one month that coincides with chronological.
	ListMatching(userID int64, pattern string) ([]*Record, error)
	DeleteByDate(userID int64, date string) (int64, error)
	DeleteAll(userID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(record *Record) error {
	return r.db.Create(record).Error
}

func (r *repository) SumKmMatching(userID int64, pattern string) (float64, error) {
	var total float64
	err := r.db.Model(&Record{}).
		Where("user_id = ? AND date LIKE ?", userID, pattern).
		Select("COALESCE(SUM(km), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumKmMatchingAtLocality(userID int64, pattern, locality string) (float64, error) {
	var total float64
	err := r.db.Model(&Record{}).
		Where("user_id = ? AND date LIKE ? AND locality = ?", userID, pattern, locality).
		Select("COALESCE(SUM(km), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumKmMatchingElsewhere(userID int64, pattern, locality string) (float64, error) {
	var total float64
	err := r.db.Model(&Record{}).
		Where("user_id = ? AND date LIKE ? AND locality != ?", userID, pattern, locality).
		Select("COALESCE(SUM(km), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) ListMatching(userID int64, pattern string) ([]*Record, error) {
	var records []*Record
	err := r.db.
		Where("user_id = ? AND date LIKE ?", userID, pattern).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) DeleteByDate(userID int64, date string) (int64, error) {
	res := r.db.Where("user_id = ? AND date = ?", userID, date).Delete(&Record{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteAll(userID int64) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&Record{})
	return res.RowsAffected, res.Error
}
