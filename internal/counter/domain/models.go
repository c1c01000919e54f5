package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	FlagOpen   = "OPEN"
	FlagClosed = "CLOSED"
)

// Session is one business day of one till. The (counter_code, date_of_open)
// pair is unique, so a day can be opened exactly once.
type Session struct {
	ID           snowflake.ID `gorm:"column:id;primaryKey"`
	CounterCode  string       `gorm:"column:counter_code"`
	DateOfOpen   string       `gorm:"column:date_of_open"`
	OpenFlag     string       `gorm:"column:open_flag"`
	OpenedBy     string       `gorm:"column:opened_by"`
	OpenedAt     *time.Time   `gorm:"column:opened_at"`
	ClosedBy     string       `gorm:"column:closed_by"`
	ClosedAt     *time.Time   `gorm:"column:closed_at"`
	LocationCode string       `gorm:"column:location_code"`
}

func (Session) TableName() string {
	return "counter_sessions"
}

type Counter struct {
	CounterCode string `gorm:"column:counter_code"`
}

func (Counter) TableName() string {
	return "counters"
}
