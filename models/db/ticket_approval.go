package dbmodels

import (
	"time"

	"employee-portal-backend/models"
)

type TicketApproval struct {
	BaseModel
	TicketID      string `gorm:"type:varchar(36);index"`
	Ticket        *Ticket
	Stage         int // models.ApprovalStageSupervisor / models.ApprovalStageTravelAdmin
	ApproverEmail string               `gorm:"type:varchar(255);index"`
	ApproverID    *string              `gorm:"type:varchar(36)"`
	Approver      *Employee            `gorm:"foreignKey:ApproverID"`
	State         models.ApprovalState `gorm:"type:varchar(20)"`
	RequestedAt   time.Time
	DecidedAt     *time.Time
	Note          string
}
