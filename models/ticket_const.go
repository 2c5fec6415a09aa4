package models

type TicketType string

const (
	TicketTypeIT     TicketType = "IT"
	TicketTypeTravel TicketType = "TRAVEL"
)

var ticketTypePrefix = map[TicketType]string{
	TicketTypeIT:     "IT",
	TicketTypeTravel: "TR",
}

func (t TicketType) Prefix() string {
	if prefix, exist := ticketTypePrefix[t]; exist {
		return prefix
	}
	return "IT"
}

func (t TicketType) IsValid() bool {
	_, exist := ticketTypePrefix[t]
	return exist
}

var ticketTypeHumanName = map[TicketType]string{
	TicketTypeIT:     "ИТ-заявка",
	TicketTypeTravel: "Командировка",
}

func (t TicketType) ToHuman() string {
	if name, exist := ticketTypeHumanName[t]; exist {
		return name
	}
	return string(t)
}

type TicketDomain string

const (
	TicketDomainIT     TicketDomain = "IT"
	TicketDomainTravel TicketDomain = "TRAVEL"
)

func (t TicketType) Domain() TicketDomain {
	if t == TicketTypeTravel {
		return TicketDomainTravel
	}
	return TicketDomainIT
}

type TicketStatus string

const (
	TicketStatusPendingApproval    TicketStatus = "PENDING_APPROVAL"
	TicketStatusOpen               TicketStatus = "OPEN"
	TicketStatusInProgress         TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingOnRequester TicketStatus = "WAITING_ON_REQUESTER"
	TicketStatusResolved           TicketStatus = "RESOLVED"
	TicketStatusClosed             TicketStatus = "CLOSED"
)

var ticketStatusHumanName = map[TicketStatus]string{
	TicketStatusPendingApproval:    "На согласовании",
	TicketStatusOpen:               "Открыта",
	TicketStatusInProgress:         "В работе",
	TicketStatusWaitingOnRequester: "Ожидает ответа заявителя",
	TicketStatusResolved:           "Решена",
	TicketStatusClosed:             "Закрыта",
}

func (s TicketStatus) ToHuman() string {
	if human, exist := ticketStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

// допустимые переходы статусов заявки
var allowedStatusChange = map[TicketStatus][]TicketStatus{
	TicketStatusPendingApproval:    {TicketStatusOpen, TicketStatusClosed},
	TicketStatusOpen:               {TicketStatusInProgress, TicketStatusWaitingOnRequester, TicketStatusResolved},
	TicketStatusInProgress:         {TicketStatusOpen, TicketStatusWaitingOnRequester, TicketStatusResolved},
	TicketStatusWaitingOnRequester: {TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved},
	TicketStatusResolved:           {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:             {TicketStatusOpen},
}

func (s TicketStatus) IsAllowChange(newStatus TicketStatus) bool {
	for _, allowed := range allowedStatusChange[s] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

func (s TicketStatus) IsFinished() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

var ticketPriorityHumanName = map[TicketPriority]string{
	TicketPriorityLow:    "Низкий",
	TicketPriorityMedium: "Средний",
	TicketPriorityHigh:   "Высокий",
	TicketPriorityUrgent: "Срочный",
}

func (p TicketPriority) ToHuman() string {
	if human, exist := ticketPriorityHumanName[p]; exist {
		return human
	}
	return string(p)
}

func (p TicketPriority) IsValid() bool {
	_, exist := ticketPriorityHumanName[p]
	return exist
}

// целевое время решения по умолчанию, в минутах
var defaultSlaTargetMinutes = map[TicketPriority]int{
	TicketPriorityUrgent: 240,
	TicketPriorityHigh:   480,
	TicketPriorityMedium: 1440,
	TicketPriorityLow:    4320,
}

func (p TicketPriority) DefaultSlaMinutes() int {
	if minutes, exist := defaultSlaTargetMinutes[p]; exist {
		return minutes
	}
	return defaultSlaTargetMinutes[TicketPriorityLow]
}

type ApprovalState string

const (
	AStatePending  ApprovalState = "PENDING"
	AStateApproved ApprovalState = "APPROVED"
	AStateRejected ApprovalState = "REJECTED"
)

var approvalStateHumanName = map[ApprovalState]string{
	AStatePending:  "Ожидает решения",
	AStateApproved: "Согласовано",
	AStateRejected: "Отклонено",
}

func (s ApprovalState) ToHuman() string {
	if human, exist := approvalStateHumanName[s]; exist {
		return human
	}
	return string(s)
}

// этапы цепочки согласования командировочной заявки
const (
	ApprovalStageSupervisor  = 1
	ApprovalStageTravelAdmin = 2
)

type TicketEventType string

const (
	EventTypeCreated           TicketEventType = "CREATED"
	EventTypeAssigned          TicketEventType = "ASSIGNED"
	EventTypeStatusChanged     TicketEventType = "STATUS_CHANGED"
	EventTypePriorityChanged   TicketEventType = "PRIORITY_CHANGED"
	EventTypeNoteAdded         TicketEventType = "NOTE_ADDED"
	EventTypeApprovalRequested TicketEventType = "APPROVAL_REQUESTED"
	EventTypeApproved          TicketEventType = "APPROVED"
	EventTypeRejected          TicketEventType = "REJECTED"
	EventTypeSlaWarning        TicketEventType = "SLA_WARNING"
	EventTypeSlaBreach         TicketEventType = "SLA_BREACH"
	EventTypeAutoCloseReminder TicketEventType = "AUTO_CLOSE_REMINDER"
	EventTypeAutoClosed        TicketEventType = "AUTO_CLOSED"
)

// IsSingleFire - события, которые должны быть отправлены не более одного раза
// (для напоминаний - не более одного раза на день-смещение)
func (t TicketEventType) IsSingleFire() bool {
	switch t {
	case EventTypeSlaWarning, EventTypeSlaBreach, EventTypeAutoCloseReminder, EventTypeAutoClosed:
		return true
	}
	return false
}

// имена событий для отправки уведомлений
type NotificationEvent string

const (
	NotifyTicketCreated         NotificationEvent = "ticket_created"
	NotifyTicketAssigned        NotificationEvent = "ticket_assigned"
	NotifyTicketStatusChanged   NotificationEvent = "ticket_status_changed"
	NotifyTicketPriorityChanged NotificationEvent = "ticket_priority_changed"
	NotifyTicketNoteAdded       NotificationEvent = "ticket_note_added"
	NotifyTicketReopened        NotificationEvent = "ticket_reopened"
	NotifyApprovalRequested     NotificationEvent = "approval_requested"
	NotifyApprovalPartial       NotificationEvent = "approval_partial"
	NotifyApprovalComplete      NotificationEvent = "approval_complete"
	NotifyApprovalRejected      NotificationEvent = "approval_rejected"
	NotifySlaWarning            NotificationEvent = "sla_warning"
	NotifySlaBreach             NotificationEvent = "sla_breach"
	NotifyAutoCloseReminder     NotificationEvent = "auto_close_reminder"
	NotifyAutoClosed            NotificationEvent = "auto_closed"
)

type NotificationStatus string

const (
	NotificationStatusFailed NotificationStatus = "FAILED"
	NotificationStatusSent   NotificationStatus = "SENT"
)
