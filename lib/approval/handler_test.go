package approvalhandler

import (
	"fmt"
	"testing"
	"time"

	notificationhandler "employee-portal-backend/lib/notification"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/stretchr/testify/require"
)

type fakeApprovalStore struct {
	seq  int
	recs map[string]*dbmodels.TicketApproval
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{recs: map[string]*dbmodels.TicketApproval{}}
}

func (f *fakeApprovalStore) Create(rec dbmodels.TicketApproval) (string, error) {
	f.seq++
	rec.ID = fmt.Sprintf("approval-%d", f.seq)
	f.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeApprovalStore) GetByID(id string) (*dbmodels.TicketApproval, error) {
	rec, exist := f.recs[id]
	if !exist {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeApprovalStore) ListByTicket(ticketID string) ([]dbmodels.TicketApproval, error) {
	list := []dbmodels.TicketApproval{}
	for _, rec := range f.recs {
		if rec.TicketID == ticketID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (f *fakeApprovalStore) ListPendingByApprover(email string) ([]dbmodels.TicketApproval, error) {
	list := []dbmodels.TicketApproval{}
	for _, rec := range f.recs {
		if rec.ApproverEmail == email && rec.State == models.AStatePending {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (f *fakeApprovalStore) CountPending(ticketID string) (int64, error) {
	var count int64
	for _, rec := range f.recs {
		if rec.TicketID == ticketID && rec.State == models.AStatePending {
			count++
		}
	}
	return count, nil
}

func (f *fakeApprovalStore) DecideIfPending(id, approverEmail string, state models.ApprovalState, note string, decidedAt time.Time) (bool, error) {
	rec, exist := f.recs[id]
	if !exist || rec.ApproverEmail != approverEmail || rec.State != models.AStatePending {
		return false, nil
	}
	rec.State = state
	rec.Note = note
	rec.DecidedAt = &decidedAt
	return true, nil
}

type fakeTicketRepo struct {
	recs map[string]*dbmodels.Ticket
}

func (f *fakeTicketRepo) Create(rec dbmodels.Ticket) (string, error)            { return "", nil }
func (f *fakeTicketRepo) Update(id string, updMap map[string]interface{}) error { return nil }
func (f *fakeTicketRepo) GetByID(id string) (*dbmodels.Ticket, error) {
	rec, exist := f.recs[id]
	if !exist {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeTicketRepo) UpdateStatusIf(id string, oldStatus, newStatus models.TicketStatus, updMap map[string]interface{}) (bool, error) {
	rec, exist := f.recs[id]
	if !exist || rec.Status != oldStatus {
		return false, nil
	}
	rec.Status = newStatus
	return true, nil
}

func (f *fakeTicketRepo) GetLastNumber(prefix string) (string, error) { return "", nil }
func (f *fakeTicketRepo) List(filter ticketapimodels.TicketFilter) ([]dbmodels.Ticket, error) {
	return nil, nil
}
func (f *fakeTicketRepo) ListCount(filter ticketapimodels.TicketFilter) (int64, error) {
	return 0, nil
}
func (f *fakeTicketRepo) ListUnfinished() ([]dbmodels.Ticket, error) { return nil, nil }
func (f *fakeTicketRepo) ListResolved() ([]dbmodels.Ticket, error)  { return nil, nil }
func (f *fakeTicketRepo) ListClosedBefore(moment time.Time) ([]dbmodels.Ticket, error) {
	return nil, nil
}

type fakeEmployeeRepo struct {
	travelAdmins []dbmodels.Employee
	byEmail      map[string]*dbmodels.Employee
}

func (f *fakeEmployeeRepo) Create(rec dbmodels.Employee) (string, error)  { return "", nil }
func (f *fakeEmployeeRepo) GetByID(id string) (*dbmodels.Employee, error) { return nil, nil }
func (f *fakeEmployeeRepo) GetByEmail(email string) (*dbmodels.Employee, error) {
	return f.byEmail[email], nil
}
func (f *fakeEmployeeRepo) ListByRole(role models.UserRole) ([]dbmodels.Employee, error) {
	if role == models.UserRoleTravelAdmin {
		return f.travelAdmins, nil
	}
	return nil, nil
}

type fakeEventSink struct {
	appended []models.TicketEventType
}

func (f *fakeEventSink) Append(ticketID, creatorID string, eventType models.TicketEventType, payload dbmodels.EventPayload) {
	f.appended = append(f.appended, eventType)
}

func (f *fakeEventSink) AppendUnique(ticketID string, eventType models.TicketEventType, payload dbmodels.EventPayload) (bool, error) {
	f.appended = append(f.appended, eventType)
	return true, nil
}

func (f *fakeEventSink) History(ticketID string) ([]ticketapimodels.TicketEventView, error) {
	return nil, nil
}

func (f *fakeEventSink) StatusChanges(ticketID string) ([]dbmodels.TicketEvent, error) {
	return nil, nil
}

func (f *fakeEventSink) HasEvent(ticketID string, eventType models.TicketEventType) (bool, error) {
	return false, nil
}

func (f *fakeEventSink) ReminderDays(ticketID string) (map[int]bool, error) { return nil, nil }

type fakeMailer struct {
	sent []notificationhandler.NotifyParams
}

func (f *fakeMailer) Notify(params notificationhandler.NotifyParams) error {
	f.sent = append(f.sent, params)
	return nil
}

func (f *fakeMailer) Retry(id string) (ticketapimodels.NotificationFailureView, error) {
	return ticketapimodels.NotificationFailureView{}, nil
}

func (f *fakeMailer) List(filter ticketapimodels.NotificationFailureFilter) ([]ticketapimodels.NotificationFailureView, int64, error) {
	return nil, 0, nil
}

type approvalFixture struct {
	handler    impl
	approvals  *fakeApprovalStore
	tickets    *fakeTicketRepo
	events     *fakeEventSink
	mailer     *fakeMailer
	ticket     dbmodels.Ticket
	supervisor dbmodels.Employee
}

func newApprovalFixture(travelAdmins []dbmodels.Employee) *approvalFixture {
	ticket := dbmodels.Ticket{
		BaseModel: dbmodels.BaseModel{ID: "ticket-1", CreatedAt: time.Now()},
		Type:      models.TicketTypeTravel,
		Domain:    models.TicketDomainTravel,
		Number:    "TR-000001",
		Status:    models.TicketStatusPendingApproval,
		Requester: &dbmodels.Employee{Email: "requester@example.com"},
	}
	supervisor := dbmodels.Employee{
		BaseModel: dbmodels.BaseModel{ID: "supervisor-1"},
		Email:     "supervisor@example.com",
		Role:      models.UserRoleEmployee,
	}
	f := &approvalFixture{
		approvals: newFakeApprovalStore(),
		tickets:   &fakeTicketRepo{recs: map[string]*dbmodels.Ticket{ticket.ID: &ticket}},
		events:    &fakeEventSink{},
		mailer:    &fakeMailer{},
		ticket:    ticket,
		supervisor: supervisor,
	}
	f.handler = impl{
		store:         f.approvals,
		ticketStore:   f.tickets,
		employeeStore: &fakeEmployeeRepo{travelAdmins: travelAdmins, byEmail: map[string]*dbmodels.Employee{supervisor.Email: &supervisor}},
		eventLog:      f.events,
		notifier:      f.mailer,
		now:           time.Now,
	}
	return f
}

func (f *approvalFixture) supervisorApprovalID(t *testing.T) string {
	list, err := f.approvals.ListPendingByApprover(f.supervisor.Email)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0].ID
}

func TestApprovalChain(t *testing.T) {
	travelAdmins := []dbmodels.Employee{
		{BaseModel: dbmodels.BaseModel{ID: "admin-1"}, Email: "travel1@example.com", Role: models.UserRoleTravelAdmin},
		{BaseModel: dbmodels.BaseModel{ID: "admin-2"}, Email: "travel2@example.com", Role: models.UserRoleTravelAdmin},
	}

	t.Run(`старт цепочки создает этап руководителя`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))

		list, err := f.approvals.ListByTicket(f.ticket.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, models.ApprovalStageSupervisor, list[0].Stage)
		require.Equal(t, f.supervisor.Email, list[0].ApproverEmail)
		require.Equal(t, models.AStatePending, list[0].State)
		require.Equal(t, []models.TicketEventType{models.EventTypeApprovalRequested}, f.events.appended)
	})

	t.Run(`согласование руководителя раздает задачи администраторам`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))

		err := f.handler.Approve(f.supervisorApprovalID(t), f.supervisor, ticketapimodels.ApprovalDecisionData{Note: "ok"})
		require.NoError(t, err)

		// заявка остается на согласовании до решения администраторов
		rec, _ := f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusPendingApproval, rec.Status)

		pending1, _ := f.approvals.ListPendingByApprover("travel1@example.com")
		pending2, _ := f.approvals.ListPendingByApprover("travel2@example.com")
		require.Len(t, pending1, 1)
		require.Len(t, pending2, 1)
		require.Equal(t, models.ApprovalStageTravelAdmin, pending1[0].Stage)

		events := []models.NotificationEvent{}
		for _, p := range f.mailer.sent {
			events = append(events, p.Event)
		}
		require.Contains(t, events, models.NotifyApprovalRequested)
		require.Contains(t, events, models.NotifyApprovalPartial)
	})

	t.Run(`полное согласование открывает заявку`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))
		require.NoError(t, f.handler.Approve(f.supervisorApprovalID(t), f.supervisor, ticketapimodels.ApprovalDecisionData{}))

		admin1 := travelAdmins[0]
		admin2 := travelAdmins[1]
		pending1, _ := f.approvals.ListPendingByApprover(admin1.Email)
		require.NoError(t, f.handler.Approve(pending1[0].ID, admin1, ticketapimodels.ApprovalDecisionData{}))

		rec, _ := f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusPendingApproval, rec.Status)

		pending2, _ := f.approvals.ListPendingByApprover(admin2.Email)
		require.NoError(t, f.handler.Approve(pending2[0].ID, admin2, ticketapimodels.ApprovalDecisionData{}))

		rec, _ = f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusOpen, rec.Status)
		last := f.mailer.sent[len(f.mailer.sent)-1]
		require.Equal(t, models.NotifyApprovalComplete, last.Event)
		require.Equal(t, []string{"requester@example.com"}, last.Recipients)
	})

	t.Run(`без администраторов заявка открывается сразу`, func(t *testing.T) {
		f := newApprovalFixture(nil)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))
		require.NoError(t, f.handler.Approve(f.supervisorApprovalID(t), f.supervisor, ticketapimodels.ApprovalDecisionData{}))

		rec, _ := f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusOpen, rec.Status)
	})

	t.Run(`отклонение закрывает заявку`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))

		err := f.handler.Reject(f.supervisorApprovalID(t), f.supervisor, ticketapimodels.ApprovalDecisionData{Note: "не согласовано"})
		require.NoError(t, err)

		rec, _ := f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusClosed, rec.Status)
		last := f.mailer.sent[len(f.mailer.sent)-1]
		require.Equal(t, models.NotifyApprovalRejected, last.Event)
	})

	t.Run(`отклонение необратимо`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))
		require.NoError(t, f.handler.Approve(f.supervisorApprovalID(t), f.supervisor, ticketapimodels.ApprovalDecisionData{}))

		admin1 := travelAdmins[0]
		admin2 := travelAdmins[1]
		pending1, _ := f.approvals.ListPendingByApprover(admin1.Email)
		require.NoError(t, f.handler.Reject(pending1[0].ID, admin1, ticketapimodels.ApprovalDecisionData{}))

		// решение второго администратора после отклонения отвергается
		pending2, _ := f.approvals.ListPendingByApprover(admin2.Email)
		err := f.handler.Approve(pending2[0].ID, admin2, ticketapimodels.ApprovalDecisionData{})
		require.Error(t, err)

		rec, _ := f.tickets.GetByID(f.ticket.ID)
		require.Equal(t, models.TicketStatusClosed, rec.Status)
	})

	t.Run(`повторное решение отклоняется`, func(t *testing.T) {
		f := newApprovalFixture(nil)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))
		id := f.supervisorApprovalID(t)
		require.NoError(t, f.handler.Approve(id, f.supervisor, ticketapimodels.ApprovalDecisionData{}))

		err := f.handler.Approve(id, f.supervisor, ticketapimodels.ApprovalDecisionData{})
		require.ErrorIs(t, err, errAlreadyProcessed)
	})

	t.Run(`чужая задача согласования недоступна`, func(t *testing.T) {
		f := newApprovalFixture(travelAdmins)
		require.NoError(t, f.handler.InitChain(f.ticket, f.supervisor.Email))

		stranger := dbmodels.Employee{Email: "stranger@example.com"}
		err := f.handler.Approve(f.supervisorApprovalID(t), stranger, ticketapimodels.ApprovalDecisionData{})
		require.ErrorIs(t, err, errAlreadyProcessed)
	})
}
