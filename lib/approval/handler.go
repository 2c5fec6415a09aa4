package approvalhandler

import (
	"time"

	"employee-portal-backend/db"
	approvalstore "employee-portal-backend/lib/approval/store"
	employeestore "employee-portal-backend/lib/employee/store"
	notificationhandler "employee-portal-backend/lib/notification"
	ticketeventhandler "employee-portal-backend/lib/ticket-event"
	ticketstore "employee-portal-backend/lib/ticket/store"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errAlreadyProcessed = errors.New("задача согласования не найдена или уже обработана")

type Provider interface {
	// InitChain - создание первого этапа цепочки (руководитель заявителя).
	// Вызывается при создании командировочной заявки, в той же транзакции
	InitChain(ticket dbmodels.Ticket, supervisorEmail string) error
	Approve(approvalID string, actor dbmodels.Employee, data ticketapimodels.ApprovalDecisionData) error
	Reject(approvalID string, actor dbmodels.Employee, data ticketapimodels.ApprovalDecisionData) error
	ListByTicket(ticketID string) ([]ticketapimodels.ApprovalView, error)
	ListMy(approverEmail string) ([]ticketapimodels.ApprovalView, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:         approvalstore.NewInstance(db.DB),
		ticketStore:   ticketstore.NewInstance(db.DB),
		employeeStore: employeestore.NewInstance(db.DB),
		eventLog:      ticketeventhandler.Instance,
		notifier:      notificationhandler.Instance,
		now:           time.Now,
	}
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		store:         approvalstore.NewInstance(tx),
		ticketStore:   ticketstore.NewInstance(tx),
		employeeStore: employeestore.NewInstance(tx),
		eventLog:      ticketeventhandler.NewHandlerWithTx(tx),
		notifier:      notificationhandler.Instance,
		now:           time.Now,
	}
}

type impl struct {
	store         approvalstore.Provider
	ticketStore   ticketstore.Provider
	employeeStore employeestore.Provider
	eventLog      ticketeventhandler.Provider
	notifier      notificationhandler.Provider
	now           func() time.Time
}

func (i impl) getLogger(ticketID string) *log.Entry {
	return log.WithField("ticket_id", ticketID)
}

func (i impl) InitChain(ticket dbmodels.Ticket, supervisorEmail string) error {
	rec := dbmodels.TicketApproval{
		TicketID:      ticket.ID,
		Stage:         models.ApprovalStageSupervisor,
		ApproverEmail: supervisorEmail,
		State:         models.AStatePending,
		RequestedAt:   i.now(),
	}
	if approver, err := i.employeeStore.GetByEmail(supervisorEmail); err == nil && approver != nil {
		approverID := approver.ID
		rec.ApproverID = &approverID
	}
	_, err := i.store.Create(rec)
	if err != nil {
		return errors.Wrap(err, "ошибка создания задачи согласования для руководителя")
	}
	i.eventLog.Append(ticket.ID, "", models.EventTypeApprovalRequested, dbmodels.EventPayload{
		ApproverEmail: supervisorEmail,
		Stage:         models.ApprovalStageSupervisor,
	})
	return nil
}

func (i impl) Approve(approvalID string, actor dbmodels.Employee, data ticketapimodels.ApprovalDecisionData) error {
	rec, ticket, err := i.getDecisionTarget(approvalID, actor.Email)
	if err != nil {
		return err
	}
	logger := i.getLogger(ticket.ID).WithField("approver", actor.Email)
	updated, err := i.store.DecideIfPending(approvalID, actor.Email, models.AStateApproved, data.Note, i.now())
	if err != nil {
		logger.WithError(err).Error("ошибка обновления задачи согласования")
		return err
	}
	if !updated {
		return errAlreadyProcessed
	}
	i.eventLog.Append(ticket.ID, actor.ID, models.EventTypeApproved, dbmodels.EventPayload{
		ApproverEmail: actor.Email,
		Stage:         rec.Stage,
		Description:   data.Note,
	})
	if rec.Stage == models.ApprovalStageSupervisor {
		return i.fanOutTravelAdmins(*ticket, actor)
	}
	return i.checkChainComplete(*ticket, actor)
}

func (i impl) Reject(approvalID string, actor dbmodels.Employee, data ticketapimodels.ApprovalDecisionData) error {
	rec, ticket, err := i.getDecisionTarget(approvalID, actor.Email)
	if err != nil {
		return err
	}
	logger := i.getLogger(ticket.ID).WithField("approver", actor.Email)
	updated, err := i.store.DecideIfPending(approvalID, actor.Email, models.AStateRejected, data.Note, i.now())
	if err != nil {
		logger.WithError(err).Error("ошибка обновления задачи согласования")
		return err
	}
	if !updated {
		return errAlreadyProcessed
	}
	i.eventLog.Append(ticket.ID, actor.ID, models.EventTypeRejected, dbmodels.EventPayload{
		ApproverEmail: actor.Email,
		Stage:         rec.Stage,
		Description:   data.Note,
	})
	// любое отклонение закрывает заявку без фазы решения
	closed, err := i.ticketStore.UpdateStatusIf(ticket.ID, models.TicketStatusPendingApproval, models.TicketStatusClosed,
		map[string]interface{}{"closed_at": i.now()})
	if err != nil {
		logger.WithError(err).Error("ошибка закрытия заявки после отклонения")
		return err
	}
	if closed {
		i.eventLog.Append(ticket.ID, actor.ID, models.EventTypeStatusChanged, dbmodels.EventPayload{
			OldStatus: models.TicketStatusPendingApproval,
			NewStatus: models.TicketStatusClosed,
		})
	}
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:         models.NotifyApprovalRejected,
		Ticket:        *ticket,
		ActorID:       actor.ID,
		Recipients:    i.requesterEmail(*ticket),
		ApproverEmail: actor.Email,
		Note:          data.Note,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление об отклонении заявки")
	}
	logger.Info("заявка отклонена согласующим")
	return nil
}

func (i impl) ListByTicket(ticketID string) ([]ticketapimodels.ApprovalView, error) {
	list, err := i.store.ListByTicket(ticketID)
	if err != nil {
		return nil, err
	}
	result := make([]ticketapimodels.ApprovalView, 0, len(list))
	for _, rec := range list {
		result = append(result, ticketapimodels.ApprovalConvert(rec))
	}
	return result, nil
}

func (i impl) ListMy(approverEmail string) ([]ticketapimodels.ApprovalView, error) {
	list, err := i.store.ListPendingByApprover(approverEmail)
	if err != nil {
		return nil, err
	}
	result := make([]ticketapimodels.ApprovalView, 0, len(list))
	for _, rec := range list {
		result = append(result, ticketapimodels.ApprovalConvert(rec))
	}
	return result, nil
}

func (i impl) getDecisionTarget(approvalID, actorEmail string) (*dbmodels.TicketApproval, *dbmodels.Ticket, error) {
	rec, err := i.store.GetByID(approvalID)
	if err != nil {
		log.WithField("approval_id", approvalID).
			WithError(err).
			Error("ошибка получения задачи согласования")
		return nil, nil, err
	}
	if rec == nil || rec.ApproverEmail != actorEmail || rec.State != models.AStatePending {
		return nil, nil, errAlreadyProcessed
	}
	ticket, err := i.ticketStore.GetByID(rec.TicketID)
	if err != nil {
		i.getLogger(rec.TicketID).WithError(err).Error("ошибка получения заявки")
		return nil, nil, err
	}
	if ticket == nil {
		return nil, nil, errors.New("заявка не найдена")
	}
	if ticket.Status != models.TicketStatusPendingApproval {
		return nil, nil, errors.New("заявка уже обработана")
	}
	return rec, ticket, nil
}

// fanOutTravelAdmins - после решения руководителя задача согласования
// создается для каждого администратора командировок
func (i impl) fanOutTravelAdmins(ticket dbmodels.Ticket, actor dbmodels.Employee) error {
	logger := i.getLogger(ticket.ID)
	admins, err := i.employeeStore.ListByRole(models.UserRoleTravelAdmin)
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка администраторов командировок")
		return err
	}
	if len(admins) == 0 {
		// согласовывать больше некому, заявка считается полностью согласованной
		return i.openTicket(ticket, actor)
	}
	for _, admin := range admins {
		adminID := admin.ID
		_, err = i.store.Create(dbmodels.TicketApproval{
			TicketID:      ticket.ID,
			Stage:         models.ApprovalStageTravelAdmin,
			ApproverEmail: admin.Email,
			ApproverID:    &adminID,
			State:         models.AStatePending,
			RequestedAt:   i.now(),
		})
		if err != nil {
			return errors.Wrapf(err, "ошибка создания задачи согласования для %v", admin.Email)
		}
		i.eventLog.Append(ticket.ID, actor.ID, models.EventTypeApprovalRequested, dbmodels.EventPayload{
			ApproverEmail: admin.Email,
			Stage:         models.ApprovalStageTravelAdmin,
		})
		notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
			Event:      models.NotifyApprovalRequested,
			Ticket:     ticket,
			ActorID:    actor.ID,
			Recipients: []string{admin.Email},
		})
		if notifyErr != nil {
			logger.WithError(notifyErr).Warn("не отправлено уведомление согласующему")
		}
	}
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:         models.NotifyApprovalPartial,
		Ticket:        ticket,
		ActorID:       actor.ID,
		Recipients:    i.requesterEmail(ticket),
		ApproverEmail: actor.Email,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление заявителю о частичном согласовании")
	}
	logger.Info("заявка согласована руководителем, созданы задачи для администраторов командировок")
	return nil
}

func (i impl) checkChainComplete(ticket dbmodels.Ticket, actor dbmodels.Employee) error {
	logger := i.getLogger(ticket.ID)
	pending, err := i.store.CountPending(ticket.ID)
	if err != nil {
		logger.WithError(err).Error("ошибка подсчета открытых задач согласования")
		return err
	}
	if pending > 0 {
		notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
			Event:         models.NotifyApprovalPartial,
			Ticket:        ticket,
			ActorID:       actor.ID,
			Recipients:    i.requesterEmail(ticket),
			ApproverEmail: actor.Email,
		})
		if notifyErr != nil {
			logger.WithError(notifyErr).Warn("не отправлено уведомление заявителю о частичном согласовании")
		}
		return nil
	}
	return i.openTicket(ticket, actor)
}

func (i impl) openTicket(ticket dbmodels.Ticket, actor dbmodels.Employee) error {
	logger := i.getLogger(ticket.ID)
	opened, err := i.ticketStore.UpdateStatusIf(ticket.ID, models.TicketStatusPendingApproval, models.TicketStatusOpen, nil)
	if err != nil {
		logger.WithError(err).Error("ошибка открытия заявки после согласования")
		return err
	}
	if !opened {
		// заявка успела сменить статус в параллельной операции, ничего не делаем
		logger.Warn("заявка полностью согласована, но уже не находится на согласовании")
		return nil
	}
	i.eventLog.Append(ticket.ID, actor.ID, models.EventTypeStatusChanged, dbmodels.EventPayload{
		OldStatus: models.TicketStatusPendingApproval,
		NewStatus: models.TicketStatusOpen,
	})
	notifyErr := i.notifier.Notify(notificationhandler.NotifyParams{
		Event:         models.NotifyApprovalComplete,
		Ticket:        ticket,
		ActorID:       actor.ID,
		Recipients:    i.requesterEmail(ticket),
		ApproverEmail: actor.Email,
	})
	if notifyErr != nil {
		logger.WithError(notifyErr).Warn("не отправлено уведомление заявителю о полном согласовании")
	}
	logger.Info("заявка полностью согласована и открыта")
	return nil
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
