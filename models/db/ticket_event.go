package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"employee-portal-backend/models"
)

// TicketEvent - неизменяемая запись журнала заявки.
// Журнал используется и как история для отображения,
// и как источник истины "было ли уже отправлено SLA-событие"
type TicketEvent struct {
	BaseModel
	TicketID  string                 `gorm:"type:varchar(36);index"`
	Type      models.TicketEventType `gorm:"type:varchar(30);index"`
	CreatorID string                 `gorm:"type:varchar(36)"` // пусто - действие системы
	Creator   *Employee              `gorm:"foreignKey:CreatorID"`
	Payload   EventPayload           `gorm:"type:jsonb"`
}

func (j EventPayload) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *EventPayload) Scan(value interface{}) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}

type EventPayload struct {
	Description   string                `json:"description,omitempty"` // Комментарий
	OldStatus     models.TicketStatus   `json:"old_status,omitempty"`
	NewStatus     models.TicketStatus   `json:"new_status,omitempty"`
	OldPriority   models.TicketPriority `json:"old_priority,omitempty"`
	NewPriority   models.TicketPriority `json:"new_priority,omitempty"`
	EngineerID    string                `json:"engineer_id,omitempty"`
	Action        string                `json:"action,omitempty"` // assigned/unassigned
	ApproverEmail string                `json:"approver_email,omitempty"`
	Stage         int                   `json:"stage,omitempty"`
	Day           int                   `json:"day,omitempty"` // день-смещение напоминания
	ElapsedMin    int                   `json:"elapsed_min,omitempty"`
	TargetMin     int                   `json:"target_min,omitempty"`
}
