package ticketnumber

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ticketstore "employee-portal-backend/lib/ticket/store"
	"employee-portal-backend/models"

	log "github.com/sirupsen/logrus"
)

const numberDigits = 6

type Provider interface {
	// Next - следующий номер заявки по префиксу типа (IT-000001, TR-000001).
	// При ошибке чтения или отсутствии заявок возвращает номер на основе времени,
	// чтобы создание заявки не блокировалось нумерацией.
	// Глобальную уникальность гарантирует уникальный индекс на tickets.number
	Next(ticketType models.TicketType) string
}

func NewInstance(store ticketstore.Provider) Provider {
	return &impl{
		store: store,
		now:   time.Now,
	}
}

type impl struct {
	store ticketstore.Provider
	now   func() time.Time
}

func (i impl) Next(ticketType models.TicketType) string {
	prefix := ticketType.Prefix()
	last, err := i.store.GetLastNumber(prefix)
	if err != nil {
		log.WithField("prefix", prefix).
			WithError(err).
			Error("ошибка получения последнего номера заявки, используется номер на основе времени")
		return i.fallback(prefix)
	}
	if last == "" {
		return Format(prefix, 1)
	}
	seq, ok := ParseSequence(last)
	if !ok {
		log.WithField("number", last).
			Warn("не удалось разобрать номер заявки, используется номер на основе времени")
		return i.fallback(prefix)
	}
	return Format(prefix, seq+1)
}

func (i impl) fallback(prefix string) string {
	return Format(prefix, int(i.now().Unix()%1000000))
}

func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s-%0*d", prefix, numberDigits, seq)
}

// ParseSequence - числовая часть номера заявки
func ParseSequence(number string) (seq int, ok bool) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, false
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil {
		return 0, false
	}
	return seq, true
}
