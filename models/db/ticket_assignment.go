package dbmodels

import "time"

type TicketAssignment struct {
	BaseModel
	TicketID     string    `gorm:"type:varchar(36);index"`
	EngineerID   string    `gorm:"type:varchar(36)"`
	Engineer     *Employee `gorm:"foreignKey:EngineerID"`
	AssignedBy   string    `gorm:"type:varchar(36)"`
	AssignedAt   time.Time
	UnassignedAt *time.Time
	UnassignedBy *string `gorm:"type:varchar(36)"`
}
