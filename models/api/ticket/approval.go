package ticketapimodels

import (
	"time"

	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"
)

type ApprovalDecisionData struct {
	Note string `json:"note"`
}

type ApprovalView struct {
	ID            string               `json:"id"`
	TicketID      string               `json:"ticket_id"`
	TicketNumber  string               `json:"ticket_number,omitempty"`
	Stage         int                  `json:"stage"`
	ApproverEmail string               `json:"approver_email"`
	Approver      string               `json:"approver,omitempty"`
	State         models.ApprovalState `json:"state"`
	StateName     string               `json:"state_name"`
	RequestedAt   time.Time            `json:"requested_at"`
	DecidedAt     *time.Time           `json:"decided_at,omitempty"`
	Note          string               `json:"note,omitempty"`
}

func ApprovalConvert(rec dbmodels.TicketApproval) ApprovalView {
	view := ApprovalView{
		ID:            rec.ID,
		TicketID:      rec.TicketID,
		Stage:         rec.Stage,
		ApproverEmail: rec.ApproverEmail,
		State:         rec.State,
		StateName:     rec.State.ToHuman(),
		RequestedAt:   rec.RequestedAt,
		DecidedAt:     rec.DecidedAt,
		Note:          rec.Note,
	}
	if rec.Approver != nil {
		view.Approver = rec.Approver.GetFullName()
	}
	if rec.Ticket != nil {
		view.TicketNumber = rec.Ticket.Number
	}
	return view
}
