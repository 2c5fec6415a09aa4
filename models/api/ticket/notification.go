package ticketapimodels

import (
	"time"

	"employee-portal-backend/models"
	apimodels "employee-portal-backend/models/api"
	dbmodels "employee-portal-backend/models/db"
)

type NotificationFailureFilter struct {
	apimodels.Pagination
	Domain models.TicketDomain       `json:"domain"`
	Status models.NotificationStatus `json:"status"`
}

type NotificationFailureView struct {
	ID            string                    `json:"id"`
	Event         models.NotificationEvent  `json:"event"`
	Domain        models.TicketDomain       `json:"domain"`
	TicketID      string                    `json:"ticket_id,omitempty"`
	Recipients    []string                  `json:"recipients"`
	Subject       string                    `json:"subject"`
	LastError     string                    `json:"last_error,omitempty"`
	Status        models.NotificationStatus `json:"status"`
	Attempts      int                       `json:"attempts"`
	LastAttemptAt time.Time                 `json:"last_attempt_at"`
	CreatedAt     time.Time                 `json:"created_at"`
}

func NotificationFailureConvert(rec dbmodels.NotificationFailure) NotificationFailureView {
	view := NotificationFailureView{
		ID:            rec.ID,
		Event:         rec.Event,
		Domain:        rec.Domain,
		Recipients:    rec.Recipients,
		Subject:       rec.Subject,
		LastError:     rec.LastError,
		Status:        rec.Status,
		Attempts:      rec.Attempts,
		LastAttemptAt: rec.LastAttemptAt,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.TicketID != nil {
		view.TicketID = *rec.TicketID
	}
	return view
}
