package slahandler

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"
)

// EffectiveElapsed - возраст заявки за вычетом интервалов ожидания ответа заявителя.
// Интервалы восстанавливаются по событиям STATUS_CHANGED в хронологическом порядке:
// вход в WAITING_ON_REQUESTER закрывается следующей сменой статуса или текущим моментом
func EffectiveElapsed(createdAt time.Time, statusChanges []dbmodels.TicketEvent, now time.Time) time.Duration {
	elapsed := now.Sub(createdAt)
	var waitingSince *time.Time
	for k := range statusChanges {
		event := statusChanges[k]
		if waitingSince != nil {
			elapsed -= event.CreatedAt.Sub(*waitingSince)
			waitingSince = nil
		}
		if event.Payload.NewStatus == models.TicketStatusWaitingOnRequester {
			moment := event.CreatedAt
			waitingSince = &moment
		}
	}
	if waitingSince != nil {
		elapsed -= now.Sub(*waitingSince)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ParseReminderDays - разбор настройки дней напоминаний вида "3,5"
func ParseReminderDays(value string) []int {
	result := make([]int, 0, 2)
	for _, part := range strings.Split(value, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day <= 0 {
			continue
		}
		result = append(result, day)
	}
	sort.Ints(result)
	return result
}
