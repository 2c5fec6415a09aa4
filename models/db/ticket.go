package dbmodels

import (
	"time"

	"employee-portal-backend/models"
)

type Ticket struct {
	BaseModel
	Type        models.TicketType     `gorm:"type:varchar(20);index"`
	Domain      models.TicketDomain   `gorm:"type:varchar(20);index"`
	Number      string                `gorm:"type:varchar(20);uniqueIndex"`
	Title       string                `gorm:"type:varchar(255)"`
	Description string
	Category    string                `gorm:"type:varchar(100)"`
	Subcategory string                `gorm:"type:varchar(100)"`
	Priority    models.TicketPriority `gorm:"type:varchar(20);index"`
	Status      models.TicketStatus   `gorm:"type:varchar(30);index"`
	RequesterID string                `gorm:"type:varchar(36);index"`
	Requester   *Employee             `gorm:"foreignKey:RequesterID"`
	ProjectCode string                `gorm:"type:varchar(100)"`
	ProjectName string                `gorm:"type:varchar(255)"`
	ResolvedAt  *time.Time
	ClosedAt    *time.Time
	Assignments []TicketAssignment `gorm:"foreignKey:TicketID"`
	Approvals   []TicketApproval   `gorm:"foreignKey:TicketID"`
}

// GetActiveAssignment - текущее назначение (не более одного на заявку)
func (t Ticket) GetActiveAssignment() *TicketAssignment {
	for k := range t.Assignments {
		if t.Assignments[k].UnassignedAt == nil {
			return &t.Assignments[k]
		}
	}
	return nil
}
