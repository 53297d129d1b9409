package absence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// CreateIfAbsent inserts the record unless one already exists for the
	// same (user, date, kind). Returns true when a row was written.
	CreateIfAbsent(record *Record) (bool, error)
	DeleteByDate(userID int64, date string) (int64, error)
	DeleteAll(userID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIfAbsent(record *Record) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteByDate(userID int64, date string) (int64, error) {
	res := r.db.Where("user_id = ? AND date = ?", userID, date).Delete(&Record{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteAll(userID int64) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&Record{})
	return res.RowsAffected, res.Error
}
