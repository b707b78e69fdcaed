package models

import "time"

// DailyVisit aggregates page hits per day and path. Rows are upserted with
// an atomic count increment by the visit middleware.
type DailyVisit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_visit_date_path" json:"date"`
	Path      string    `gorm:"size:255;uniqueIndex:idx_visit_date_path" json:"path"`
	Count     int64     `gorm:"default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
