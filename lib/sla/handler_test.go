package slahandler

import (
	"context"
	"fmt"
	"testing"
	"time"

	notificationhandler "employee-portal-backend/lib/notification"
	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/stretchr/testify/require"
)

type fakeTicketStore struct {
	unfinished   []dbmodels.Ticket
	resolved     []dbmodels.Ticket
	updateResult bool
	updates      []string
}

func (f *fakeTicketStore) Create(rec dbmodels.Ticket) (string, error)            { return "", nil }
func (f *fakeTicketStore) GetByID(id string) (*dbmodels.Ticket, error)           { return nil, nil }
func (f *fakeTicketStore) Update(id string, updMap map[string]interface{}) error { return nil }
func (f *fakeTicketStore) UpdateStatusIf(id string, oldStatus, newStatus models.TicketStatus, updMap map[string]interface{}) (bool, error) {
	f.updates = append(f.updates, fmt.Sprintf("%s:%s->%s", id, oldStatus, newStatus))
	return f.updateResult, nil
}
func (f *fakeTicketStore) GetLastNumber(prefix string) (string, error) { return "", nil }
func (f *fakeTicketStore) List(filter ticketapimodels.TicketFilter) ([]dbmodels.Ticket, error) {
	return nil, nil
}
func (f *fakeTicketStore) ListCount(filter ticketapimodels.TicketFilter) (int64, error) {
	return 0, nil
}
func (f *fakeTicketStore) ListUnfinished() ([]dbmodels.Ticket, error) { return f.unfinished, nil }
func (f *fakeTicketStore) ListResolved() ([]dbmodels.Ticket, error)  { return f.resolved, nil }
func (f *fakeTicketStore) ListClosedBefore(moment time.Time) ([]dbmodels.Ticket, error) {
	return nil, nil
}

type fakeEventLog struct {
	unique        map[string]bool
	statusChanges map[string][]dbmodels.TicketEvent
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{
		unique:        map[string]bool{},
		statusChanges: map[string][]dbmodels.TicketEvent{},
	}
}

func (f *fakeEventLog) Append(ticketID, creatorID string, eventType models.TicketEventType, payload dbmodels.EventPayload) {
}

func (f *fakeEventLog) AppendUnique(ticketID string, eventType models.TicketEventType, payload dbmodels.EventPayload) (bool, error) {
	key := fmt.Sprintf("%s/%s/%d", ticketID, eventType, payload.Day)
	if f.unique[key] {
		return false, nil
	}
	f.unique[key] = true
	return true, nil
}

func (f *fakeEventLog) History(ticketID string) ([]ticketapimodels.TicketEventView, error) {
	return nil, nil
}

func (f *fakeEventLog) StatusChanges(ticketID string) ([]dbmodels.TicketEvent, error) {
	return f.statusChanges[ticketID], nil
}

func (f *fakeEventLog) HasEvent(ticketID string, eventType models.TicketEventType) (bool, error) {
	return false, nil
}

func (f *fakeEventLog) ReminderDays(ticketID string) (map[int]bool, error) {
	return nil, nil
}

type fakeNotifier struct {
	sent []notificationhandler.NotifyParams
}

func (f *fakeNotifier) Notify(params notificationhandler.NotifyParams) error {
	f.sent = append(f.sent, params)
	return nil
}

func (f *fakeNotifier) Retry(id string) (ticketapimodels.NotificationFailureView, error) {
	return ticketapimodels.NotificationFailureView{}, nil
}

func (f *fakeNotifier) List(filter ticketapimodels.NotificationFailureFilter) ([]ticketapimodels.NotificationFailureView, int64, error) {
	return nil, 0, nil
}

type fakeEmployeeStore struct {
	admins []dbmodels.Employee
}

func (f *fakeEmployeeStore) Create(rec dbmodels.Employee) (string, error)      { return "", nil }
func (f *fakeEmployeeStore) GetByID(id string) (*dbmodels.Employee, error)     { return nil, nil }
func (f *fakeEmployeeStore) GetByEmail(email string) (*dbmodels.Employee, error) { return nil, nil }
func (f *fakeEmployeeStore) ListByRole(role models.UserRole) ([]dbmodels.Employee, error) {
	return f.admins, nil
}

type fakeConfigStore struct {
	list []dbmodels.SlaConfig
}

func (f *fakeConfigStore) List() ([]dbmodels.SlaConfig, error) { return f.list, nil }
func (f *fakeConfigStore) Upsert(priority models.TicketPriority, targetMinutes int) error {
	return nil
}

func newSlaImpl(store *fakeTicketStore, eventLog *fakeEventLog, notifier *fakeNotifier, now time.Time) impl {
	return impl{
		ticketStore:   store,
		configStore:   &fakeConfigStore{},
		employeeStore: &fakeEmployeeStore{admins: []dbmodels.Employee{{Email: "admin@example.com"}}},
		eventLog:      eventLog,
		notifier:      notifier,
		reminderDays:  []int{3, 5},
		autoCloseDays: 7,
		now:           func() time.Time { return now },
	}
}

func openTicket(id string, createdAt time.Time, priority models.TicketPriority) dbmodels.Ticket {
	return dbmodels.Ticket{
		BaseModel: dbmodels.BaseModel{ID: id, CreatedAt: createdAt},
		Type:      models.TicketTypeIT,
		Domain:    models.TicketDomainIT,
		Priority:  priority,
		Status:    models.TicketStatusOpen,
		Requester: &dbmodels.Employee{Email: "requester@example.com"},
	}
}

func TestSlaMonitor(t *testing.T) {
	baseTime := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	t.Run(`предупреждение срабатывает один раз на 80 процентах`, func(t *testing.T) {
		now := baseTime.Add(200 * time.Minute)
		store := &fakeTicketStore{unfinished: []dbmodels.Ticket{openTicket("t1", baseTime, models.TicketPriorityUrgent)}}
		eventLog := newFakeEventLog()
		notifier := &fakeNotifier{}
		handler := newSlaImpl(store, eventLog, notifier, now)

		result := handler.RunCheck(context.Background())
		require.Equal(t, 1, result.Scanned)
		require.Equal(t, 1, result.Warnings)
		require.Equal(t, 0, result.Breaches)
		require.Len(t, notifier.sent, 1)
		require.Equal(t, models.NotifySlaWarning, notifier.sent[0].Event)
		// без исполнителя уведомление уходит администраторам домена
		require.Equal(t, []string{"admin@example.com"}, notifier.sent[0].Recipients)

		// повторный запуск не дублирует предупреждение
		result = handler.RunCheck(context.Background())
		require.Equal(t, 0, result.Warnings)
		require.Len(t, notifier.sent, 1)
	})

	t.Run(`нарушение срабатывает один раз после превышения норматива`, func(t *testing.T) {
		now := baseTime.Add(245 * time.Minute)
		store := &fakeTicketStore{unfinished: []dbmodels.Ticket{openTicket("t2", baseTime, models.TicketPriorityUrgent)}}
		eventLog := newFakeEventLog()
		notifier := &fakeNotifier{}
		handler := newSlaImpl(store, eventLog, notifier, now)

		result := handler.RunCheck(context.Background())
		require.Equal(t, 1, result.Breaches)
		require.Equal(t, 0, result.Warnings)
		require.Len(t, notifier.sent, 1)
		require.Equal(t, models.NotifySlaBreach, notifier.sent[0].Event)
		require.Equal(t, 245, notifier.sent[0].ElapsedMin)
		require.Equal(t, 240, notifier.sent[0].TargetMin)

		result = handler.RunCheck(context.Background())
		require.Equal(t, 0, result.Breaches)
		require.Len(t, notifier.sent, 1)
	})

	t.Run(`интервал ожидания откладывает предупреждение`, func(t *testing.T) {
		now := baseTime.Add(1500 * time.Minute)
		ticket := openTicket("t3", baseTime, models.TicketPriorityMedium)
		store := &fakeTicketStore{unfinished: []dbmodels.Ticket{ticket}}
		eventLog := newFakeEventLog()
		eventLog.statusChanges["t3"] = []dbmodels.TicketEvent{
			statusChange(baseTime.Add(100*time.Minute), models.TicketStatusWaitingOnRequester),
			statusChange(baseTime.Add(700*time.Minute), models.TicketStatusInProgress),
		}
		notifier := &fakeNotifier{}
		handler := newSlaImpl(store, eventLog, notifier, now)

		// эффективно прошло 900 минут из 1440 - ниже порога предупреждения
		result := handler.RunCheck(context.Background())
		require.Equal(t, 0, result.Warnings)
		require.Equal(t, 0, result.Breaches)
		require.Empty(t, notifier.sent)
	})

	t.Run(`норматив из настроек заменяет значение по умолчанию`, func(t *testing.T) {
		now := baseTime.Add(100 * time.Minute)
		store := &fakeTicketStore{unfinished: []dbmodels.Ticket{openTicket("t4", baseTime, models.TicketPriorityUrgent)}}
		eventLog := newFakeEventLog()
		notifier := &fakeNotifier{}
		handler := newSlaImpl(store, eventLog, notifier, now)
		handler.configStore = &fakeConfigStore{list: []dbmodels.SlaConfig{
			{Priority: models.TicketPriorityUrgent, TargetMinutes: 90},
		}}

		result := handler.RunCheck(context.Background())
		require.Equal(t, 1, result.Breaches)
		require.Equal(t, 90, notifier.sent[0].TargetMin)
	})

	t.Run(`напоминания по дням`, func(t *testing.T) {
		resolvedAt := baseTime
		ticket := openTicket("t5", baseTime.Add(-time.Hour), models.TicketPriorityLow)
		ticket.Status = models.TicketStatusResolved
		ticket.ResolvedAt = &resolvedAt
		store := &fakeTicketStore{resolved: []dbmodels.Ticket{ticket}}
		eventLog := newFakeEventLog()
		notifier := &fakeNotifier{}

		// третий день после решения
		handler := newSlaImpl(store, eventLog, notifier, baseTime.Add(3*24*time.Hour+time.Hour))
		result := handler.RunCheck(context.Background())
		require.Equal(t, 1, result.Reminders)
		require.Equal(t, models.NotifyAutoCloseReminder, notifier.sent[0].Event)
		require.Equal(t, 3, notifier.sent[0].Day)
		require.Equal(t, []string{"requester@example.com"}, notifier.sent[0].Recipients)

		// повторный запуск в тот же день ничего не добавляет
		result = handler.RunCheck(context.Background())
		require.Equal(t, 0, result.Reminders)

		// пятый день: только напоминание пятого дня, третий уже отправлен
		handler = newSlaImpl(store, eventLog, notifier, baseTime.Add(5*24*time.Hour+time.Hour))
		result = handler.RunCheck(context.Background())
		require.Equal(t, 1, result.Reminders)
		require.Equal(t, 5, notifier.sent[len(notifier.sent)-1].Day)
	})

	t.Run(`автозакрытие после истечения срока`, func(t *testing.T) {
		resolvedAt := baseTime
		ticket := openTicket("t6", baseTime.Add(-time.Hour), models.TicketPriorityLow)
		ticket.Status = models.TicketStatusResolved
		ticket.ResolvedAt = &resolvedAt
		store := &fakeTicketStore{resolved: []dbmodels.Ticket{ticket}, updateResult: true}
		eventLog := newFakeEventLog()
		notifier := &fakeNotifier{}
		handler := newSlaImpl(store, eventLog, notifier, baseTime.Add(8*24*time.Hour))

		result := handler.RunCheck(context.Background())
		require.Equal(t, 1, result.AutoClosed)
		require.Equal(t, 0, result.Reminders)
		require.Equal(t, []string{"t6:RESOLVED->CLOSED"}, store.updates)
		require.Len(t, notifier.sent, 1)
		require.Equal(t, models.NotifyAutoClosed, notifier.sent[0].Event)

		// проигранная гонка со сменой статуса не считается автозакрытием
		store.updateResult = false
		result = handler.RunCheck(context.Background())
		require.Equal(t, 0, result.AutoClosed)
		require.Len(t, notifier.sent, 1)
	})
}
