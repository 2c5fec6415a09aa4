package ticketeventhandler

import (
	"employee-portal-backend/db"
	ticketeventstore "employee-portal-backend/lib/ticket-event/store"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	// Append - добавление записи в журнал заявки.
	// Журнал не является критичным для основной операции: ошибка логируется, но не возвращается
	Append(ticketID, creatorID string, eventType models.TicketEventType, payload dbmodels.EventPayload)
	// AppendUnique - добавление единоразового события (SLA).
	// Возвращает false, если событие уже было записано ранее
	AppendUnique(ticketID string, eventType models.TicketEventType, payload dbmodels.EventPayload) (created bool, err error)
	History(ticketID string) ([]ticketapimodels.TicketEventView, error)
	StatusChanges(ticketID string) ([]dbmodels.TicketEvent, error)
	HasEvent(ticketID string, eventType models.TicketEventType) (bool, error)
	ReminderDays(ticketID string) (map[int]bool, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: ticketeventstore.NewInstance(db.DB),
	}
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		store: ticketeventstore.NewInstance(tx),
	}
}

type impl struct {
	store ticketeventstore.Provider
}

func (i impl) Append(ticketID, creatorID string, eventType models.TicketEventType, payload dbmodels.EventPayload) {
	rec := dbmodels.TicketEvent{
		TicketID:  ticketID,
		Type:      eventType,
		CreatorID: creatorID,
		Payload:   payload,
	}
	_, err := i.store.Create(rec)
	if err != nil {
		log.WithField("ticket_id", ticketID).
			WithField("event_type", eventType).
			WithError(err).
			Error("ошибка добавления записи в журнал заявки")
	}
}

func (i impl) AppendUnique(ticketID string, eventType models.TicketEventType, payload dbmodels.EventPayload) (created bool, err error) {
	rec := dbmodels.TicketEvent{
		TicketID: ticketID,
		Type:     eventType,
		Payload:  payload,
	}
	return i.store.CreateUnique(rec)
}

func (i impl) History(ticketID string) ([]ticketapimodels.TicketEventView, error) {
	list, err := i.store.List(ticketID)
	if err != nil {
		return nil, err
	}
	result := make([]ticketapimodels.TicketEventView, 0, len(list))
	for _, rec := range list {
		result = append(result, ticketapimodels.TicketEventConvert(rec))
	}
	return result, nil
}

func (i impl) StatusChanges(ticketID string) ([]dbmodels.TicketEvent, error) {
	return i.store.ListByType(ticketID, models.EventTypeStatusChanged)
}

func (i impl) HasEvent(ticketID string, eventType models.TicketEventType) (bool, error) {
	return i.store.HasEvent(ticketID, eventType)
}

func (i impl) ReminderDays(ticketID string) (map[int]bool, error) {
	list, err := i.store.ListByType(ticketID, models.EventTypeAutoCloseReminder)
	if err != nil {
		return nil, err
	}
	result := map[int]bool{}
	for _, rec := range list {
		result[rec.Payload.Day] = true
	}
	return result, nil
}
