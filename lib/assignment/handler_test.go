package assignmenthandler

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

type fakeAssignmentStore struct {
	seq  int
	recs []*dbmodels.TicketAssignment
}

func (f *fakeAssignmentStore) active(ticketID string) *dbmodels.TicketAssignment {
	for _, rec := range f.recs {
		if rec.TicketID == ticketID && rec.UnassignedAt == nil {
			return rec
		}
	}
	return nil
}

func (f *fakeAssignmentStore) CreateActive(rec dbmodels.TicketAssignment) (bool, error) {
	if f.active(rec.TicketID) != nil {
		return false, nil
	}
	f.seq++
	rec.ID = fmt.Sprintf("assignment-%d", f.seq)
	f.recs = append(f.recs, &rec)
	return true, nil
}

func (f *fakeAssignmentStore) GetActive(ticketID string) (*dbmodels.TicketAssignment, error) {
	rec := f.active(ticketID)
	if rec == nil {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeAssignmentStore) CloseActive(ticketID, byUserID string, at time.Time) (bool, error) {
	rec := f.active(ticketID)
	if rec == nil {
		return false, nil
	}
	rec.UnassignedAt = &at
	rec.UnassignedBy = &byUserID
	return true, nil
}

func (f *fakeAssignmentStore) List(ticketID string) ([]dbmodels.TicketAssignment, error) {
	list := []dbmodels.TicketAssignment{}
	for _, rec := range f.recs {
		if rec.TicketID == ticketID {
			list = append(list, *rec)
		}
	}
	return list, nil
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
	recs map[string]*dbmodels.Employee
}

func (f *fakeEmployeeRepo) Create(rec dbmodels.Employee) (string, error) { return "", nil }
func (f *fakeEmployeeRepo) GetByID(id string) (*dbmodels.Employee, error) {
	return f.recs[id], nil
}
func (f *fakeEmployeeRepo) GetByEmail(email string) (*dbmodels.Employee, error) { return nil, nil }
func (f *fakeEmployeeRepo) ListByRole(role models.UserRole) ([]dbmodels.Employee, error) {
	return nil, nil
}

type fakeEventSink struct {
	appended []models.TicketEventType
}

func (f *fakeEventSink) Append(ticketID, creatorID string, eventType models.TicketEventType, payload dbmodels.EventPayload) {
	f.appended = append(f.appended, eventType)
}

func (f *fakeEventSink) AppendUnique(ticketID string, eventType models.TicketEventType, payload dbmodels.EventPayload) (bool, error) {
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

func newAssignmentFixture() (impl, *fakeAssignmentStore, *fakeTicketRepo, *fakeMailer, *fakeEventSink) {
	ticket := &dbmodels.Ticket{
		BaseModel: dbmodels.BaseModel{ID: "ticket-1", CreatedAt: time.Now()},
		Type:      models.TicketTypeIT,
		Domain:    models.TicketDomainIT,
		Status:    models.TicketStatusOpen,
		Requester: &dbmodels.Employee{Email: "requester@example.com"},
	}
	assignments := &fakeAssignmentStore{}
	tickets := &fakeTicketRepo{recs: map[string]*dbmodels.Ticket{ticket.ID: ticket}}
	employees := &fakeEmployeeRepo{recs: map[string]*dbmodels.Employee{
		"engineer-1": {BaseModel: dbmodels.BaseModel{ID: "engineer-1"}, Email: "eng1@example.com", IsActive: true},
		"engineer-2": {BaseModel: dbmodels.BaseModel{ID: "engineer-2"}, Email: "eng2@example.com", IsActive: true},
	}}
	mailer := &fakeMailer{}
	events := &fakeEventSink{}
	handler := impl{
		store:         assignments,
		ticketStore:   tickets,
		employeeStore: employees,
		eventLog:      events,
		notifier:      mailer,
		now:           time.Now,
	}
	return handler, assignments, tickets, mailer, events
}

func TestAssignment(t *testing.T) {
	t.Run(`взятие в работу назначает и переводит заявку в работу`, func(t *testing.T) {
		handler, assignments, tickets, mailer, _ := newAssignmentFixture()

		require.NoError(t, handler.Claim("ticket-1", "engineer-1"))

		active, _ := assignments.GetActive("ticket-1")
		require.NotNil(t, active)
		require.Equal(t, "engineer-1", active.EngineerID)

		rec, _ := tickets.GetByID("ticket-1")
		require.Equal(t, models.TicketStatusInProgress, rec.Status)

		require.Len(t, mailer.sent, 1)
		require.Equal(t, models.NotifyTicketAssigned, mailer.sent[0].Event)
		require.Equal(t, []string{"requester@example.com"}, mailer.sent[0].Recipients)
	})

	t.Run(`конфликт взятия в работу`, func(t *testing.T) {
		handler, _, _, _, _ := newAssignmentFixture()

		require.NoError(t, handler.Claim("ticket-1", "engineer-1"))
		err := handler.Claim("ticket-1", "engineer-2")
		require.EqualError(t, err, "заявка уже назначена")
	})

	t.Run(`назначение заменяет текущего исполнителя`, func(t *testing.T) {
		handler, assignments, _, _, _ := newAssignmentFixture()

		require.NoError(t, handler.Claim("ticket-1", "engineer-1"))
		require.NoError(t, handler.Assign("ticket-1", "engineer-2", "admin-1"))

		active, _ := assignments.GetActive("ticket-1")
		require.NotNil(t, active)
		require.Equal(t, "engineer-2", active.EngineerID)
		require.Equal(t, "admin-1", active.AssignedBy)

		history, _ := assignments.List("ticket-1")
		require.Len(t, history, 2)
		require.NotNil(t, history[0].UnassignedAt)
	})

	t.Run(`снятие исполнителя`, func(t *testing.T) {
		handler, assignments, _, _, _ := newAssignmentFixture()

		require.NoError(t, handler.Claim("ticket-1", "engineer-1"))
		require.NoError(t, handler.Unassign("ticket-1", "admin-1"))

		active, _ := assignments.GetActive("ticket-1")
		require.Nil(t, active)

		err := handler.Unassign("ticket-1", "admin-1")
		require.EqualError(t, err, "на заявке нет активного назначения")
	})

	t.Run(`несуществующие заявка и инженер`, func(t *testing.T) {
		handler, _, _, _, _ := newAssignmentFixture()

		err := handler.Claim("missing", "engineer-1")
		require.EqualError(t, err, "заявка не найдена")

		err = handler.Claim("ticket-1", "missing")
		require.EqualError(t, err, "инженер не найден")
	})
}
