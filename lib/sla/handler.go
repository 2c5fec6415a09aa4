package slahandler

import (
	"context"
	"time"

	"employee-portal-backend/db"
	employeestore "employee-portal-backend/lib/employee/store"
	notificationhandler "employee-portal-backend/lib/notification"
	slaconfigstore "employee-portal-backend/lib/sla/config-store"
	ticketeventhandler "employee-portal-backend/lib/ticket-event"
	ticketstore "employee-portal-backend/lib/ticket/store"
	"employee-portal-backend/lib/utils/helpers"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// доля целевого времени, после которой отправляется предупреждение
const warningShare = 0.8

type Provider interface {
	// RunCheck - идемпотентный проход SLA-монитора по открытым и решенным заявкам.
	// Ошибка по отдельной заявке логируется и не прерывает проход
	RunCheck(ctx context.Context) ticketapimodels.SlaJobResult
	GetConfig() ([]ticketapimodels.SlaConfigView, error)
	SetConfig(data ticketapimodels.SlaConfigData) error
}

var Instance Provider

func NewHandler(reminderDays []int, autoCloseDays int) {
	Instance = impl{
		ticketStore:   ticketstore.NewInstance(db.DB),
		configStore:   slaconfigstore.NewInstance(db.DB),
		employeeStore: employeestore.NewInstance(db.DB),
		eventLog:      ticketeventhandler.Instance,
		notifier:      notificationhandler.Instance,
		reminderDays:  reminderDays,
		autoCloseDays: autoCloseDays,
		now:           time.Now,
	}
}

type impl struct {
	ticketStore   ticketstore.Provider
	configStore   slaconfigstore.Provider
	employeeStore employeestore.Provider
	eventLog      ticketeventhandler.Provider
	notifier      notificationhandler.Provider
	reminderDays  []int
	autoCloseDays int
	now           func() time.Time
}

func (i impl) getLogger() *log.Entry {
	return log.WithField("worker_name", "SlaMonitor")
}

func (i impl) RunCheck(ctx context.Context) (result ticketapimodels.SlaJobResult) {
	logger := i.getLogger()
	targets, err := i.targetMinutes()
	if err != nil {
		logger.WithError(err).Error("ошибка получения настроек SLA, используются значения по умолчанию")
	}
	list, err := i.ticketStore.ListUnfinished()
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка открытых заявок")
		result.Errors++
	}
	for _, ticket := range list {
		if helpers.IsContextDone(ctx) {
			return result
		}
		result.Scanned++
		if err = i.checkOpenTicket(ticket, targets, &result); err != nil {
			logger.WithField("ticket_id", ticket.ID).
				WithError(err).
				Error("ошибка проверки SLA по заявке")
			result.Errors++
		}
	}

	resolved, err := i.ticketStore.ListResolved()
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка решенных заявок")
		result.Errors++
	}
	for _, ticket := range resolved {
		if helpers.IsContextDone(ctx) {
			return result
		}
		result.Scanned++
		if err = i.checkResolvedTicket(ticket, &result); err != nil {
			logger.WithField("ticket_id", ticket.ID).
				WithError(err).
				Error("ошибка проверки решенной заявки")
			result.Errors++
		}
	}
	logger.
		WithField("scanned", result.Scanned).
		WithField("warnings", result.Warnings).
		WithField("breaches", result.Breaches).
		WithField("reminders", result.Reminders).
		WithField("auto_closed", result.AutoClosed).
		WithField("errors", result.Errors).
		Info("проход SLA-монитора завершен")
	return result
}

func (i impl) checkOpenTicket(ticket dbmodels.Ticket, targets map[models.TicketPriority]int, result *ticketapimodels.SlaJobResult) error {
	statusChanges, err := i.eventLog.StatusChanges(ticket.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка чтения журнала заявки")
	}
	now := i.now()
	elapsedMin := int(EffectiveElapsed(ticket.CreatedAt, statusChanges, now).Minutes())
	targetMin, exist := targets[ticket.Priority]
	if !exist {
		targetMin = ticket.Priority.DefaultSlaMinutes()
	}
	payload := dbmodels.EventPayload{
		ElapsedMin: elapsedMin,
		TargetMin:  targetMin,
	}
	if elapsedMin >= targetMin {
		created, err := i.eventLog.AppendUnique(ticket.ID, models.EventTypeSlaBreach, payload)
		if err != nil {
			return errors.Wrap(err, "ошибка записи события нарушения SLA")
		}
		if created {
			result.Breaches++
			i.notifySla(models.NotifySlaBreach, ticket, elapsedMin, targetMin)
		}
		return nil
	}
	if float64(elapsedMin) >= float64(targetMin)*warningShare {
		created, err := i.eventLog.AppendUnique(ticket.ID, models.EventTypeSlaWarning, payload)
		if err != nil {
			return errors.Wrap(err, "ошибка записи события предупреждения SLA")
		}
		if created {
			result.Warnings++
			i.notifySla(models.NotifySlaWarning, ticket, elapsedMin, targetMin)
		}
	}
	return nil
}

func (i impl) checkResolvedTicket(ticket dbmodels.Ticket, result *ticketapimodels.SlaJobResult) error {
	if ticket.ResolvedAt == nil {
		return errors.New("у решенной заявки не заполнено время решения")
	}
	daysResolved := int(i.now().Sub(*ticket.ResolvedAt).Hours() / 24)
	if daysResolved >= i.autoCloseDays {
		return i.autoClose(ticket, result)
	}
	for _, day := range i.reminderDays {
		if daysResolved < day {
			continue
		}
		created, err := i.eventLog.AppendUnique(ticket.ID, models.EventTypeAutoCloseReminder, dbmodels.EventPayload{
			Day: day,
		})
		if err != nil {
			return errors.Wrap(err, "ошибка записи события напоминания")
		}
		if !created {
			continue
		}
		result.Reminders++
		notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
			Event:      models.NotifyAutoCloseReminder,
			Ticket:     ticket,
			Recipients: i.requesterEmail(ticket),
			Day:        day,
		})
		if notifyErr != nil {
			i.getLogger().WithField("ticket_id", ticket.ID).
				WithError(notifyErr).
				Warn("не отправлено напоминание о закрытии заявки")
		}
	}
	return nil
}

// autoClose - автозакрытие решенной заявки по истечении срока подтверждения.
// Условное обновление статуса делает операцию безопасной при параллельных запусках
func (i impl) autoClose(ticket dbmodels.Ticket, result *ticketapimodels.SlaJobResult) error {
	closed, err := i.ticketStore.UpdateStatusIf(ticket.ID, models.TicketStatusResolved, models.TicketStatusClosed,
		map[string]interface{}{"closed_at": i.now()})
	if err != nil {
		return errors.Wrap(err, "ошибка автозакрытия заявки")
	}
	if !closed {
		return nil
	}
	created, err := i.eventLog.AppendUnique(ticket.ID, models.EventTypeAutoClosed, dbmodels.EventPayload{
		OldStatus: models.TicketStatusResolved,
		NewStatus: models.TicketStatusClosed,
	})
	if err != nil {
		return errors.Wrap(err, "ошибка записи события автозакрытия")
	}
	if !created {
		return nil
	}
	result.AutoClosed++
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:      models.NotifyAutoClosed,
		Ticket:     ticket,
		Recipients: i.requesterEmail(ticket),
	})
	if notifyErr != nil {
		i.getLogger().WithField("ticket_id", ticket.ID).
			WithError(notifyErr).
			Warn("не отправлено уведомление об автозакрытии")
	}
	return nil
}

// notifySla - предупреждения и нарушения SLA адресуются исполнителю,
// при его отсутствии - администраторам домена заявки
func (i impl) notifySla(event models.NotificationEvent, ticket dbmodels.Ticket, elapsedMin, targetMin int) {
	logger := i.getLogger().WithField("ticket_id", ticket.ID)
	recipients := []string{}
	if assignment := ticket.GetActiveAssignment(); assignment != nil && assignment.Engineer != nil {
		recipients = append(recipients, assignment.Engineer.Email)
	} else {
		role := models.UserRoleITAdmin
		if ticket.Domain == models.TicketDomainTravel {
			role = models.UserRoleTravelAdmin
		}
		admins, err := i.employeeStore.ListByRole(role)
		if err != nil {
			logger.WithError(err).Error("ошибка получения списка администраторов")
		}
		for _, admin := range admins {
			recipients = append(recipients, admin.Email)
		}
	}
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:      event,
		Ticket:     ticket,
		Recipients: recipients,
		ElapsedMin: elapsedMin,
		TargetMin:  targetMin,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено SLA-уведомление")
	}
}

func (i impl) targetMinutes() (map[models.TicketPriority]int, error) {
	result := map[models.TicketPriority]int{
		models.TicketPriorityUrgent: models.TicketPriorityUrgent.DefaultSlaMinutes(),
		models.TicketPriorityHigh:   models.TicketPriorityHigh.DefaultSlaMinutes(),
		models.TicketPriorityMedium: models.TicketPriorityMedium.DefaultSlaMinutes(),
		models.TicketPriorityLow:    models.TicketPriorityLow.DefaultSlaMinutes(),
	}
	list, err := i.configStore.List()
	if err != nil {
		return result, err
	}
	for _, rec := range list {
		result[rec.Priority] = rec.TargetMinutes
	}
	return result, nil
}

func (i impl) GetConfig() ([]ticketapimodels.SlaConfigView, error) {
	overrides := map[models.TicketPriority]int{}
	list, err := i.configStore.List()
	if err != nil {
		return nil, err
	}
	for _, rec := range list {
		overrides[rec.Priority] = rec.TargetMinutes
	}
	priorities := []models.TicketPriority{
		models.TicketPriorityUrgent,
		models.TicketPriorityHigh,
		models.TicketPriorityMedium,
		models.TicketPriorityLow,
	}
	result := make([]ticketapimodels.SlaConfigView, 0, len(priorities))
	for _, priority := range priorities {
		view := ticketapimodels.SlaConfigView{
			Priority:      priority,
			TargetMinutes: priority.DefaultSlaMinutes(),
			IsDefault:     true,
		}
		if minutes, exist := overrides[priority]; exist {
			view.TargetMinutes = minutes
			view.IsDefault = false
		}
		result = append(result, view)
	}
	return result, nil
}

func (i impl) SetConfig(data ticketapimodels.SlaConfigData) error {
	err := i.configStore.Upsert(data.Priority, data.TargetMinutes)
	if err != nil {
		log.WithField("priority", data.Priority).
			WithError(err).
			Error("ошибка сохранения настройки SLA")
		return err
	}
	return nil
}

func (i impl) requesterEmail(ticket dbmodels.Ticket) []string {
	if ticket.Requester != nil && ticket.Requester.Email != "" {
		return []string{ticket.Requester.Email}
	}
	rec, err := i.employeeStore.GetByID(ticket.RequesterID)
	if err != nil || rec == nil {
		i.getLogger().WithField("ticket_id", ticket.ID).
			WithError(err).
			Error("не удалось получить почту заявителя")
		return nil
	}
	return []string{rec.Email}
}
