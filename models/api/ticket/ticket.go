package ticketapimodels

import (
	"strings"
	"time"

	"employee-portal-backend/models"
	apimodels "employee-portal-backend/models/api"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
)

type TicketCreateData struct {
	Type        models.TicketType     `json:"type"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory"`
	Priority    models.TicketPriority `json:"priority"`
	ProjectCode string                `json:"project_code"`
	ProjectName string                `json:"project_name"`
}

func (d TicketCreateData) Validate() error {
	if !d.Type.IsValid() {
		return errors.New("не указан тип заявки")
	}
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("не указана тема заявки")
	}
	if strings.TrimSpace(d.Description) == "" {
		return errors.New("не указано описание заявки")
	}
	if !d.Priority.IsValid() {
		return errors.New("не указан приоритет заявки")
	}
	return nil
}

type TicketStatusData struct {
	Status models.TicketStatus `json:"status"`
}

func (d TicketStatusData) Validate() error {
	if d.Status == "" {
		return errors.New("не указан новый статус")
	}
	return nil
}

type TicketPriorityData struct {
	Priority models.TicketPriority `json:"priority"`
}

func (d TicketPriorityData) Validate() error {
	if !d.Priority.IsValid() {
		return errors.New("не указан приоритет")
	}
	return nil
}

type TicketNoteData struct {
	Note string `json:"note"`
}

func (d TicketNoteData) Validate() error {
	if strings.TrimSpace(d.Note) == "" {
		return errors.New("пустой комментарий")
	}
	return nil
}

type TicketAssignData struct {
	EngineerID string `json:"engineer_id"`
}

func (d TicketAssignData) Validate() error {
	if d.EngineerID == "" {
		return errors.New("не указан исполнитель")
	}
	return nil
}

type TicketFilter struct {
	apimodels.Pagination
	Domain      models.TicketDomain   `json:"domain"`
	Status      models.TicketStatus   `json:"status"`
	Priority    models.TicketPriority `json:"priority"`
	Search      string                `json:"search"` // поиск по номеру и теме
	EngineerID  string                `json:"engineer_id"`
	RequesterID string                `json:"requester_id"`
}

type TicketView struct {
	ID          string                `json:"id"`
	Type        models.TicketType     `json:"type"`
	Domain      models.TicketDomain   `json:"domain"`
	Number      string                `json:"number"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory"`
	Priority    models.TicketPriority `json:"priority"`
	Status      models.TicketStatus   `json:"status"`
	StatusName  string                `json:"status_name"`
	RequesterID string                `json:"requester_id"`
	Requester   string                `json:"requester"`
	EngineerID  string                `json:"engineer_id,omitempty"`
	Engineer    string                `json:"engineer,omitempty"`
	ProjectCode string                `json:"project_code,omitempty"`
	ProjectName string                `json:"project_name,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	ClosedAt    *time.Time            `json:"closed_at,omitempty"`
}

func TicketConvert(rec dbmodels.Ticket) TicketView {
	view := TicketView{
		ID:          rec.ID,
		Type:        rec.Type,
		Domain:      rec.Domain,
		Number:      rec.Number,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    rec.Category,
		Subcategory: rec.Subcategory,
		Priority:    rec.Priority,
		Status:      rec.Status,
		StatusName:  rec.Status.ToHuman(),
		RequesterID: rec.RequesterID,
		ProjectCode: rec.ProjectCode,
		ProjectName: rec.ProjectName,
		CreatedAt:   rec.CreatedAt,
		ResolvedAt:  rec.ResolvedAt,
		ClosedAt:    rec.ClosedAt,
	}
	if rec.Requester != nil {
		view.Requester = rec.Requester.GetFullName()
	}
	if assignment := rec.GetActiveAssignment(); assignment != nil {
		view.EngineerID = assignment.EngineerID
		if assignment.Engineer != nil {
			view.Engineer = assignment.Engineer.GetFullName()
		}
	}
	return view
}

type TicketEventView struct {
	ID          string                 `json:"id"`
	Type        models.TicketEventType `json:"type"`
	CreatorID   string                 `json:"creator_id,omitempty"`
	CreatorName string                 `json:"creator_name"`
	Payload     dbmodels.EventPayload  `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
}

func TicketEventConvert(rec dbmodels.TicketEvent) TicketEventView {
	view := TicketEventView{
		ID:          rec.ID,
		Type:        rec.Type,
		CreatorID:   rec.CreatorID,
		CreatorName: models.SystemUser,
		Payload:     rec.Payload,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Creator != nil {
		view.CreatorName = rec.Creator.GetFullName()
	}
	return view
}
