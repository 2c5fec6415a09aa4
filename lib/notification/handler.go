package notificationhandler

import (
	"time"

	"employee-portal-backend/db"
	notificationfailurestore "employee-portal-backend/lib/notification/failure-store"
	"employee-portal-backend/lib/smtp"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const channelEmail = "email"

type NotifyParams struct {
	Event         models.NotificationEvent
	Ticket        dbmodels.Ticket
	ActorID       string
	Recipients    []string
	Cc            []string
	OldStatus     models.TicketStatus
	NewStatus     models.TicketStatus
	OldPriority   models.TicketPriority
	NewPriority   models.TicketPriority
	Note          string
	EngineerName  string
	ApproverEmail string
	Day           int
	ElapsedMin    int
	TargetMin     int
}

type Provider interface {
	// Notify - рендер и отправка письма по событию.
	// При ошибке отправки создается запись NotificationFailure и возвращается ошибка:
	// вызывающая операция сама решает, что с ней делать
	// (мутация заявки при этом не откатывается)
	Notify(params NotifyParams) error
	Retry(id string) (ticketapimodels.NotificationFailureView, error)
	List(filter ticketapimodels.NotificationFailureFilter) ([]ticketapimodels.NotificationFailureView, int64, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		failureStore: notificationfailurestore.NewInstance(db.DB),
		mailer:       smtp.Instance,
		now:          time.Now,
	}
}

type impl struct {
	failureStore notificationfailurestore.Provider
	mailer       smtp.Provider
	now          func() time.Time
}

func (i impl) getLogger(params NotifyParams) *log.Entry {
	return log.
		WithField("event", params.Event).
		WithField("ticket_id", params.Ticket.ID).
		WithField("recipients", params.Recipients)
}

func (i impl) Notify(params NotifyParams) error {
	logger := i.getLogger(params)
	if len(params.Recipients) == 0 {
		logger.Warn("уведомление пропущено: нет получателей")
		return nil
	}
	subject, htmlBody, textBody, err := buildMessage(params)
	if err != nil {
		logger.WithError(err).Error("ошибка формирования уведомления")
		return err
	}
	sendErr := i.mailer.SendEMail(params.Recipients, params.Cc, subject, htmlBody, textBody)
	if sendErr == nil {
		return nil
	}
	rec := dbmodels.NotificationFailure{
		Channel:       channelEmail,
		Domain:        params.Ticket.Domain,
		Event:         params.Event,
		Recipients:    append(params.Recipients, params.Cc...),
		Subject:       subject,
		HTMLBody:      htmlBody,
		TextBody:      textBody,
		LastError:     sendErr.Error(),
		Status:        models.NotificationStatusFailed,
		Attempts:      1,
		LastAttemptAt: i.now(),
	}
	if params.Ticket.ID != "" {
		ticketID := params.Ticket.ID
		rec.TicketID = &ticketID
	}
	if params.ActorID != "" {
		actorID := params.ActorID
		rec.ActorID = &actorID
	}
	if _, err = i.failureStore.Create(rec); err != nil {
		// запись о сбое потеряна, фиксируем хотя бы в логе
		logger.WithError(err).Error("ошибка сохранения записи о неотправленном уведомлении")
	} else {
		logger.WithError(sendErr).Warn("уведомление не отправлено, создана запись для повторной отправки")
	}
	return sendErr
}

func (i impl) Retry(id string) (ticketapimodels.NotificationFailureView, error) {
	logger := log.WithField("notification_id", id)
	rec, err := i.failureStore.GetByID(id)
	if err != nil {
		logger.WithError(err).Error("ошибка получения записи уведомления")
		return ticketapimodels.NotificationFailureView{}, err
	}
	if rec == nil {
		return ticketapimodels.NotificationFailureView{}, errors.New("запись уведомления не найдена")
	}
	if rec.Status == models.NotificationStatusSent {
		return ticketapimodels.NotificationFailureView{}, errors.New("уведомление уже отправлено")
	}
	claimed, err := i.failureStore.ClaimRetry(rec.ID, rec.Attempts, i.now())
	if err != nil {
		logger.WithError(err).Error("ошибка захвата записи уведомления под повтор")
		return ticketapimodels.NotificationFailureView{}, err
	}
	if !claimed {
		return ticketapimodels.NotificationFailureView{}, errors.New("повторная отправка уже выполняется")
	}
	updMap := map[string]interface{}{}
	sendErr := i.mailer.SendEMail(rec.Recipients, nil, rec.Subject, rec.HTMLBody, rec.TextBody)
	if sendErr == nil {
		updMap["status"] = models.NotificationStatusSent
		updMap["last_error"] = ""
	} else {
		updMap["last_error"] = sendErr.Error()
	}
	if err = i.failureStore.Update(rec.ID, updMap); err != nil {
		logger.WithError(err).Error("ошибка обновления записи уведомления")
		return ticketapimodels.NotificationFailureView{}, err
	}
	updated, err := i.failureStore.GetByID(id)
	if err != nil || updated == nil {
		logger.WithError(err).Error("ошибка получения записи уведомления после повтора")
		return ticketapimodels.NotificationFailureView{}, errors.New("ошибка получения записи уведомления")
	}
	if sendErr != nil {
		return ticketapimodels.NotificationFailureConvert(*updated), errors.Wrap(sendErr, "повторная отправка не удалась")
	}
	logger.Info("уведомление отправлено повторно")
	return ticketapimodels.NotificationFailureConvert(*updated), nil
}

func (i impl) List(filter ticketapimodels.NotificationFailureFilter) ([]ticketapimodels.NotificationFailureView, int64, error) {
	rowCount, err := i.failureStore.ListCount(filter)
	if err != nil {
		return nil, 0, err
	}
	list, err := i.failureStore.List(filter)
	if err != nil {
		log.WithError(err).Error("ошибка получения списка уведомлений")
		return nil, 0, err
	}
	result := make([]ticketapimodels.NotificationFailureView, 0, len(list))
	for _, rec := range list {
		result = append(result, ticketapimodels.NotificationFailureConvert(rec))
	}
	return result, rowCount, nil
}
