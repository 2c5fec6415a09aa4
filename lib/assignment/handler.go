package assignmenthandler

import (
	"time"

	"employee-portal-backend/db"
	assignmentstore "employee-portal-backend/lib/assignment/store"
	employeestore "employee-portal-backend/lib/employee/store"
	notificationhandler "employee-portal-backend/lib/notification"
	ticketeventhandler "employee-portal-backend/lib/ticket-event"
	ticketstore "employee-portal-backend/lib/ticket/store"
	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	actionAssigned   = "assigned"
	actionUnassigned = "unassigned"
)

type Provider interface {
	// Assign - явное назначение исполнителя, снимает текущее назначение
	Assign(ticketID, engineerID, actorID string) error
	// Claim - инженер берет заявку себе; отказ, если исполнитель уже назначен
	Claim(ticketID, engineerID string) error
	Unassign(ticketID, actorID string) error
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:         assignmentstore.NewInstance(db.DB),
		ticketStore:   ticketstore.NewInstance(db.DB),
		employeeStore: employeestore.NewInstance(db.DB),
		eventLog:      ticketeventhandler.Instance,
		notifier:      notificationhandler.Instance,
		now:           time.Now,
	}
}

type impl struct {
	store         assignmentstore.Provider
	ticketStore   ticketstore.Provider
	employeeStore employeestore.Provider
	eventLog      ticketeventhandler.Provider
	notifier      notificationhandler.Provider
	now           func() time.Time
}

func (i impl) getLogger(ticketID string) *log.Entry {
	return log.WithField("ticket_id", ticketID)
}

func (i impl) Assign(ticketID, engineerID, actorID string) error {
	logger := i.getLogger(ticketID).WithField("engineer_id", engineerID)
	ticket, engineer, err := i.getTicketAndEngineer(ticketID, engineerID)
	if err != nil {
		return err
	}
	if _, err = i.store.CloseActive(ticketID, actorID, i.now()); err != nil {
		logger.WithError(err).Error("ошибка снятия текущего назначения")
		return err
	}
	created, err := i.store.CreateActive(dbmodels.TicketAssignment{
		TicketID:   ticketID,
		EngineerID: engineerID,
		AssignedBy: actorID,
		AssignedAt: i.now(),
	})
	if err != nil {
		logger.WithError(err).Error("ошибка создания назначения")
		return err
	}
	if !created {
		// параллельная операция успела вставить свое назначение
		return errors.New("заявка уже назначена")
	}
	i.afterAssigned(*ticket, *engineer, actorID)
	logger.Info("заявка назначена исполнителю")
	return nil
}

func (i impl) Claim(ticketID, engineerID string) error {
	logger := i.getLogger(ticketID).WithField("engineer_id", engineerID)
	ticket, engineer, err := i.getTicketAndEngineer(ticketID, engineerID)
	if err != nil {
		return err
	}
	created, err := i.store.CreateActive(dbmodels.TicketAssignment{
		TicketID:   ticketID,
		EngineerID: engineerID,
		AssignedBy: engineerID,
		AssignedAt: i.now(),
	})
	if err != nil {
		logger.WithError(err).Error("ошибка создания назначения")
		return err
	}
	if !created {
		return errors.New("заявка уже назначена")
	}
	i.afterAssigned(*ticket, *engineer, engineerID)
	logger.Info("заявка взята в работу")
	return nil
}

func (i impl) Unassign(ticketID, actorID string) error {
	logger := i.getLogger(ticketID)
	ticket, err := i.ticketStore.GetByID(ticketID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения заявки")
		return err
	}
	if ticket == nil {
		return errors.New("заявка не найдена")
	}
	closed, err := i.store.CloseActive(ticketID, actorID, i.now())
	if err != nil {
		logger.WithError(err).Error("ошибка снятия назначения")
		return err
	}
	if !closed {
		return errors.New("на заявке нет активного назначения")
	}
	i.eventLog.Append(ticketID, actorID, models.EventTypeAssigned, dbmodels.EventPayload{
		Action: actionUnassigned,
	})
	logger.Info("назначение снято")
	return nil
}

func (i impl) getTicketAndEngineer(ticketID, engineerID string) (*dbmodels.Ticket, *dbmodels.Employee, error) {
	logger := i.getLogger(ticketID)
	ticket, err := i.ticketStore.GetByID(ticketID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения заявки")
		return nil, nil, err
	}
	if ticket == nil {
		return nil, nil, errors.New("заявка не найдена")
	}
	engineer, err := i.employeeStore.GetByID(engineerID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения сотрудника")
		return nil, nil, err
	}
	if engineer == nil || !engineer.IsActive {
		return nil, nil, errors.New("инженер не найден")
	}
	return ticket, engineer, nil
}

func (i impl) afterAssigned(ticket dbmodels.Ticket, engineer dbmodels.Employee, actorID string) {
	logger := i.getLogger(ticket.ID)
	i.eventLog.Append(ticket.ID, actorID, models.EventTypeAssigned, dbmodels.EventPayload{
		EngineerID: engineer.ID,
		Action:     actionAssigned,
	})
	if ticket.Status == models.TicketStatusOpen {
		updated, err := i.ticketStore.UpdateStatusIf(ticket.ID, models.TicketStatusOpen, models.TicketStatusInProgress, nil)
		if err != nil {
			logger.WithError(err).Error("ошибка перевода заявки в работу после назначения")
		} else if updated {
			i.eventLog.Append(ticket.ID, actorID, models.EventTypeStatusChanged, dbmodels.EventPayload{
				OldStatus: models.TicketStatusOpen,
				NewStatus: models.TicketStatusInProgress,
			})
		}
	}
	recipients := i.requesterEmail(ticket)
	err := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:        models.NotifyTicketAssigned,
		Ticket:       ticket,
		ActorID:      actorID,
		Recipients:   recipients,
		EngineerName: engineer.GetFullName(),
	})
	if err != nil {
		// назначение выполнено, сбой уведомления зафиксирован в журнале отправки
		logger.WithError(err).Warn("не отправлено уведомление о назначении")
	}
}

func (i impl) requesterEmail(ticket dbmodels.Ticket) []string {
	if ticket.Requester != nil && ticket.Requester.Email != "" {
		return []string{ticket.Requester.Email}
	}
	rec, err := i.employeeStore.GetByID(ticket.RequesterID)
	if err != nil || rec == nil {
		i.getLogger(ticket.ID).WithError(err).Error("не удалось получить почту заявителя")
		return nil
	}
	return []string{rec.Email}
}
