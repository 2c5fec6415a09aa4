package ticketapimodels

import (
	"employee-portal-backend/models"

	"github.com/pkg/errors"
)

// SlaJobResult - агрегированный итог прохода SLA-монитора
type SlaJobResult struct {
	Scanned    int `json:"scanned"`
	Warnings   int `json:"warnings"`
	Breaches   int `json:"breaches"`
	Reminders  int `json:"reminders"`
	AutoClosed int `json:"auto_closed"`
	Errors     int `json:"errors"`
}

type SlaConfigView struct {
	Priority      models.TicketPriority `json:"priority"`
	TargetMinutes int                   `json:"target_minutes"`
	IsDefault     bool                  `json:"is_default"` // значение по умолчанию, строки в БД нет
}

type SlaConfigData struct {
	Priority      models.TicketPriority `json:"priority"`
	TargetMinutes int                   `json:"target_minutes"`
}

func (d SlaConfigData) Validate() error {
	if !d.Priority.IsValid() {
		return errors.New("не указан приоритет")
	}
	if d.TargetMinutes <= 0 {
		return errors.New("целевое время должно быть больше нуля")
	}
	return nil
}

// ArchiveResult - итог архивации журнала событий
type ArchiveResult struct {
	Tickets    int    `json:"tickets"`
	Events     int    `json:"events"`
	ObjectName string `json:"object_name,omitempty"`
}
