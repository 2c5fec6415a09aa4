package slahandler

import (
	"testing"
	"time"

	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"

	"github.com/stretchr/testify/require"
)

func statusChange(at time.Time, newStatus models.TicketStatus) dbmodels.TicketEvent {
	return dbmodels.TicketEvent{
		BaseModel: dbmodels.BaseModel{CreatedAt: at},
		Type:      models.EventTypeStatusChanged,
		Payload:   dbmodels.EventPayload{NewStatus: newStatus},
	}
}

func TestEffectiveElapsed(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	t.Run(`без интервалов ожидания`, func(t *testing.T) {
		now := createdAt.Add(200 * time.Minute)
		elapsed := EffectiveElapsed(createdAt, nil, now)
		require.Equal(t, 200*time.Minute, elapsed)
	})

	t.Run(`закрытый интервал ожидания исключается`, func(t *testing.T) {
		events := []dbmodels.TicketEvent{
			statusChange(createdAt.Add(100*time.Minute), models.TicketStatusWaitingOnRequester),
			statusChange(createdAt.Add(700*time.Minute), models.TicketStatusInProgress),
		}
		now := createdAt.Add(1500 * time.Minute)
		elapsed := EffectiveElapsed(createdAt, events, now)
		require.Equal(t, 900*time.Minute, elapsed)
	})

	t.Run(`открытый интервал ожидания исключается до текущего момента`, func(t *testing.T) {
		events := []dbmodels.TicketEvent{
			statusChange(createdAt.Add(60*time.Minute), models.TicketStatusWaitingOnRequester),
		}
		now := createdAt.Add(300 * time.Minute)
		elapsed := EffectiveElapsed(createdAt, events, now)
		require.Equal(t, 60*time.Minute, elapsed)
	})

	t.Run(`несколько интервалов ожидания`, func(t *testing.T) {
		events := []dbmodels.TicketEvent{
			statusChange(createdAt.Add(10*time.Minute), models.TicketStatusWaitingOnRequester),
			statusChange(createdAt.Add(30*time.Minute), models.TicketStatusOpen),
			statusChange(createdAt.Add(50*time.Minute), models.TicketStatusWaitingOnRequester),
			statusChange(createdAt.Add(90*time.Minute), models.TicketStatusInProgress),
		}
		now := createdAt.Add(100 * time.Minute)
		elapsed := EffectiveElapsed(createdAt, events, now)
		require.Equal(t, 40*time.Minute, elapsed)
	})

	t.Run(`результат не бывает отрицательным`, func(t *testing.T) {
		elapsed := EffectiveElapsed(createdAt, nil, createdAt.Add(-time.Minute))
		require.Equal(t, time.Duration(0), elapsed)
	})
}

func TestParseReminderDays(t *testing.T) {
	t.Run(`разбор дней напоминаний`, func(t *testing.T) {
		require.Equal(t, []int{3, 5}, ParseReminderDays("3,5"))
		require.Equal(t, []int{3, 5}, ParseReminderDays(" 5 , 3 "))
		require.Equal(t, []int{2}, ParseReminderDays("2,oops,-1,0"))
		require.Equal(t, []int{}, ParseReminderDays(""))
	})
}
