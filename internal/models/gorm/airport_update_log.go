package gorm

import "time"

// Update log entry types.
const (
	UpdateTypeDiscovered = "discovered"
	UpdateTypeUpdated    = "updated"
	UpdateTypeVerified   = "verified"
)

// AirportUpdateLog is the append-only audit trail for registry changes.
// Rows are write-only; nothing in the system mutates or deletes them.
type AirportUpdateLog struct {
	ID         string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	IATA       string    `gorm:"column:iata;type:varchar(3);not null;index"`
	UpdateType string    `gorm:"column:update_type;type:varchar(20);not null"`
	Source     string    `gorm:"column:source;type:varchar(20);not null"`
	Details    string    `gorm:"column:details;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for GORM
func (AirportUpdateLog) TableName() string {
	return "airport_update_log"
}
