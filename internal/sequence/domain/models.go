package domain

import "time"

const (
	FlagUnsettled = "n"
	FlagSettled   = "y"
)

// Entry is one allocation event in the bill number ledger. Entries are never
// deleted; settlement only flips the flag.
type Entry struct {
	BillNo      int64     `gorm:"column:bill_no;uniqueIndex" json:"bill_no"`
	Settled     string    `gorm:"column:settled" json:"settled"`
	CounterCode string    `gorm:"column:counter_code" json:"counter_code,omitempty"`
	AllocatedAt time.Time `gorm:"column:allocated_at" json:"allocated_at"`
}

func (Entry) TableName() string {
	return "bill_sequence"
}
