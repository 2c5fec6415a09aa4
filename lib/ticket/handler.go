package tickethandler

import (
	"bytes"
	"time"

	"employee-portal-backend/db"
	approvalhandler "employee-portal-backend/lib/approval"
	xlsexport "employee-portal-backend/lib/export/xls"
	employeestore "employee-portal-backend/lib/employee/store"
	notificationhandler "employee-portal-backend/lib/notification"
	ticketeventhandler "employee-portal-backend/lib/ticket-event"
	ticketnumber "employee-portal-backend/lib/ticket/number"
	ticketstore "employee-portal-backend/lib/ticket/store"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// число попыток вставки при совпадении номера с параллельно созданной заявкой
const createAttempts = 3

type Provider interface {
	Create(requester dbmodels.Employee, data ticketapimodels.TicketCreateData) (id string, err error)
	GetByID(id string) (ticketapimodels.TicketView, error)
	GetRec(id string) (*dbmodels.Ticket, error)
	List(filter ticketapimodels.TicketFilter) ([]ticketapimodels.TicketView, int64, error)
	History(id string) ([]ticketapimodels.TicketEventView, error)
	ChangeStatus(id, actorID string, actorRole models.UserRole, newStatus models.TicketStatus) error
	ChangePriority(id, actorID string, newPriority models.TicketPriority) error
	AddNote(id, actorID, note string) error
	// Reopen - возврат решенной или закрытой заявки в работу заявителем
	Reopen(id, actorID string) error
	Export(filter ticketapimodels.TicketFilter) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	store := ticketstore.NewInstance(db.DB)
	Instance = impl{
		store:         store,
		numbering:     ticketnumber.NewInstance(store),
		employeeStore: employeestore.NewInstance(db.DB),
		eventLog:      ticketeventhandler.Instance,
		notifier:      notificationhandler.Instance,
		now:           time.Now,
	}
}

type impl struct {
	store         ticketstore.Provider
	numbering     ticketnumber.Provider
	employeeStore employeestore.Provider
	eventLog      ticketeventhandler.Provider
	notifier      notificationhandler.Provider
	now           func() time.Time
}

func (i impl) getLogger(ticketID string) *log.Entry {
	return log.WithField("ticket_id", ticketID)
}

func (i impl) Create(requester dbmodels.Employee, data ticketapimodels.TicketCreateData) (id string, err error) {
	logger := log.WithField("requester_id", requester.ID)
	rec := dbmodels.Ticket{
		Type:        data.Type,
		Domain:      data.Type.Domain(),
		Title:       data.Title,
		Description: data.Description,
		Category:    data.Category,
		Subcategory: data.Subcategory,
		Priority:    data.Priority,
		Status:      models.TicketStatusOpen,
		RequesterID: requester.ID,
		ProjectCode: data.ProjectCode,
		ProjectName: data.ProjectName,
	}
	needApproval := data.Type == models.TicketTypeTravel && requester.SupervisorEmail != ""
	if needApproval {
		rec.Status = models.TicketStatusPendingApproval
	}
	for attempt := 0; attempt < createAttempts; attempt++ {
		rec.Number = i.numbering.Next(data.Type)
		err = db.DB.Transaction(func(tx *gorm.DB) error {
			store := ticketstore.NewInstance(tx)
			id, err = store.Create(rec)
			if err != nil {
				return err
			}
			rec.ID = id
			eventLog := ticketeventhandler.NewHandlerWithTx(tx)
			eventLog.Append(id, requester.ID, models.EventTypeCreated, dbmodels.EventPayload{
				Description: rec.Number,
			})
			if needApproval {
				return approvalhandler.NewHandlerWithTx(tx).InitChain(rec, requester.SupervisorEmail)
			}
			return nil
		})
		if err == nil {
			break
		}
		// уникальный индекс по номеру: при совпадении берем следующий номер
		logger.WithField("number", rec.Number).
			WithError(err).
			Warn("не удалось создать заявку, повтор с новым номером")
	}
	if err != nil {
		logger.WithError(err).Error("ошибка создания заявки")
		return "", errors.New("ошибка создания заявки")
	}
	logger.
		WithField("rec_id", id).
		WithField("number", rec.Number).
		Info("создана заявка")

	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:      models.NotifyTicketCreated,
		Ticket:     rec,
		ActorID:    requester.ID,
		Recipients: []string{requester.Email},
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление о создании заявки")
	}
	if needApproval {
		notifyErr = i.notifier.Notify(notificationhandler.NotifyParams{
			Event:      models.NotifyApprovalRequested,
			Ticket:     rec,
			ActorID:    requester.ID,
			Recipients: []string{requester.SupervisorEmail},
		})
		if notifyErr != nil {
			logger.WithError(notifyErr).Warn("не отправлено уведомление руководителю о согласовании")
		}
	}
	return id, nil
}

func (i impl) GetByID(id string) (ticketapimodels.TicketView, error) {
	rec, err := i.getRec(id)
	if err != nil {
		return ticketapimodels.TicketView{}, err
	}
	return ticketapimodels.TicketConvert(*rec), nil
}

func (i impl) GetRec(id string) (*dbmodels.Ticket, error) {
	return i.getRec(id)
}

func (i impl) List(filter ticketapimodels.TicketFilter) ([]ticketapimodels.TicketView, int64, error) {
	rowCount, err := i.store.ListCount(filter)
	if err != nil {
		return nil, 0, err
	}
	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	if int64(offset) > rowCount {
		return []ticketapimodels.TicketView{}, rowCount, nil
	}
	recList, err := i.store.List(filter)
	if err != nil {
		log.WithError(err).Error("ошибка получения списка заявок")
		return nil, 0, err
	}
	result := make([]ticketapimodels.TicketView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, ticketapimodels.TicketConvert(rec))
	}
	return result, rowCount, nil
}

func (i impl) History(id string) ([]ticketapimodels.TicketEventView, error) {
	rec, err := i.getRec(id)
	if err != nil {
		return nil, err
	}
	return i.eventLog.History(rec.ID)
}

func (i impl) ChangeStatus(id, actorID string, actorRole models.UserRole, newStatus models.TicketStatus) error {
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	// из статуса согласования заявку выводят только решения согласующих
	if rec.Status == models.TicketStatusPendingApproval {
		return errors.New("заявка на согласовании, статус меняется решением согласующих")
	}
	if !rec.Status.IsAllowChange(newStatus) {
		return errors.Errorf("изменение статуса на %v недопустимо", newStatus)
	}
	if !actorRole.HasDomainAccess(rec.Domain) && !isRequesterChange(rec.Status, newStatus) {
		return errors.New("операция недоступна")
	}
	return i.applyStatusChange(rec, actorID, newStatus)
}

// isRequesterChange - переходы, доступные заявителю:
// подтверждение решения и возврат завершенной заявки в работу
func isRequesterChange(oldStatus, newStatus models.TicketStatus) bool {
	if oldStatus == models.TicketStatusResolved && newStatus == models.TicketStatusClosed {
		return true
	}
	return oldStatus.IsFinished() && newStatus == models.TicketStatusOpen
}

func (i impl) Reopen(id, actorID string) error {
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	if !rec.Status.IsFinished() {
		return errors.New("повторно открыть можно только решенную или закрытую заявку")
	}
	return i.applyStatusChange(rec, actorID, models.TicketStatusOpen)
}

func (i impl) applyStatusChange(rec *dbmodels.Ticket, actorID string, newStatus models.TicketStatus) error {
	logger := i.getLogger(rec.ID).WithField("new_status", newStatus)
	updMap := map[string]interface{}{}
	switch newStatus {
	case models.TicketStatusResolved:
		updMap["resolved_at"] = i.now()
	case models.TicketStatusClosed:
		updMap["closed_at"] = i.now()
	case models.TicketStatusOpen:
		if rec.Status.IsFinished() {
			updMap["resolved_at"] = nil
			updMap["closed_at"] = nil
		}
	}
	updated, err := i.store.UpdateStatusIf(rec.ID, rec.Status, newStatus, updMap)
	if err != nil {
		logger.WithError(err).Error("ошибка обновления статуса")
		return err
	}
	if !updated {
		return errors.New("статус заявки уже изменен, обновите данные и повторите")
	}
	i.eventLog.Append(rec.ID, actorID, models.EventTypeStatusChanged, dbmodels.EventPayload{
		OldStatus: rec.Status,
		NewStatus: newStatus,
	})
	event := models.NotifyTicketStatusChanged
	if newStatus == models.TicketStatusOpen && rec.Status.IsFinished() {
		event = models.NotifyTicketReopened
	}
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:      event,
		Ticket:     *rec,
		ActorID:    actorID,
		Recipients: i.recipients(rec, actorID),
		OldStatus:  rec.Status,
		NewStatus:  newStatus,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление о смене статуса")
	}
	logger.Info("статус заявки обновлен")
	return nil
}

func (i impl) ChangePriority(id, actorID string, newPriority models.TicketPriority) error {
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	logger := i.getLogger(id).WithField("new_priority", newPriority)
	if rec.Priority == newPriority {
		return nil
	}
	err = i.store.Update(id, map[string]interface{}{"priority": newPriority})
	if err != nil {
		logger.WithError(err).Error("ошибка обновления приоритета")
		return err
	}
	i.eventLog.Append(id, actorID, models.EventTypePriorityChanged, dbmodels.EventPayload{
		OldPriority: rec.Priority,
		NewPriority: newPriority,
	})
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:       models.NotifyTicketPriorityChanged,
		Ticket:      *rec,
		ActorID:     actorID,
		Recipients:  i.recipients(rec, actorID),
		OldPriority: rec.Priority,
		NewPriority: newPriority,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление о смене приоритета")
	}
	logger.Info("приоритет заявки обновлен")
	return nil
}

func (i impl) AddNote(id, actorID, note string) error {
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	logger := i.getLogger(id)
	i.eventLog.Append(id, actorID, models.EventTypeNoteAdded, dbmodels.EventPayload{
		Description: note,
	})
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:      models.NotifyTicketNoteAdded,
		Ticket:     *rec,
		ActorID:    actorID,
		Recipients: i.recipients(rec, actorID),
		Note:       note,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление о комментарии")
	}
	logger.Info("добавлен комментарий к заявке")
	return nil
}

// предел строк в выгрузке реестра
const exportLimit = 10000

func (i impl) Export(filter ticketapimodels.TicketFilter) (*bytes.Buffer, error) {
	filter.Page = 1
	filter.Limit = exportLimit
	recList, err := i.store.List(filter)
	if err != nil {
		log.WithError(err).Error("ошибка получения списка заявок для выгрузки")
		return nil, err
	}
	return xlsexport.Instance.ExportTicketList(recList)
}

func (i impl) getRec(id string) (*dbmodels.Ticket, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		i.getLogger(id).WithError(err).Error("ошибка получения заявки")
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("заявка не найдена")
	}
	return rec, nil
}

// recipients - заявитель и текущий исполнитель, кроме автора действия
func (i impl) recipients(rec *dbmodels.Ticket, actorID string) []string {
	result := make([]string, 0, 2)
	if rec.Requester != nil && rec.Requester.Email != "" && rec.RequesterID != actorID {
		result = append(result, rec.Requester.Email)
	}
	if assignment := rec.GetActiveAssignment(); assignment != nil && assignment.EngineerID != actorID {
		if assignment.Engineer != nil && assignment.Engineer.Email != "" {
			result = append(result, assignment.Engineer.Email)
		}
	}
	return result
}
