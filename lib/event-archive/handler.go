package eventarchivehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"employee-portal-backend/db"
	ticketeventstore "employee-portal-backend/lib/ticket-event/store"
	ticketstore "employee-portal-backend/lib/ticket/store"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	s3client "employee-portal-backend/s3"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Provider interface {
	// Archive - выгрузка журнала событий давно закрытых заявок в S3
	// и удаление выгруженных записей из БД
	Archive(ctx context.Context) (ticketapimodels.ArchiveResult, error)
}

var Instance Provider

func NewHandler(bucketName string, retentionDays int) {
	Instance = impl{
		ticketStore:   ticketstore.NewInstance(db.DB),
		eventStore:    ticketeventstore.NewInstance(db.DB),
		bucketName:    bucketName,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

type impl struct {
	ticketStore   ticketstore.Provider
	eventStore    ticketeventstore.Provider
	bucketName    string
	retentionDays int
	now           func() time.Time
}

func (i impl) Archive(ctx context.Context) (ticketapimodels.ArchiveResult, error) {
	logger := log.WithField("worker_name", "EventArchive")
	cutoff := i.now().AddDate(0, 0, -i.retentionDays)
	tickets, err := i.ticketStore.ListClosedBefore(cutoff)
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка закрытых заявок")
		return ticketapimodels.ArchiveResult{}, err
	}
	if len(tickets) == 0 {
		return ticketapimodels.ArchiveResult{}, nil
	}
	ticketIDs := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ticketIDs = append(ticketIDs, ticket.ID)
	}
	events, err := i.eventStore.ListOldByTickets(ticketIDs)
	if err != nil {
		logger.WithError(err).Error("ошибка получения журнала заявок для архивации")
		return ticketapimodels.ArchiveResult{}, err
	}
	if len(events) == 0 {
		return ticketapimodels.ArchiveResult{Tickets: len(tickets)}, nil
	}
	body, err := json.Marshal(events)
	if err != nil {
		return ticketapimodels.ArchiveResult{}, errors.Wrap(err, "ошибка сериализации журнала")
	}
	objectName := fmt.Sprintf("ticket-events/%s-%s.json", i.now().Format("2006-01-02"), uuid.New().String())
	if err = s3client.EnsureBucket(ctx, i.bucketName); err != nil {
		logger.WithError(err).Error("ошибка проверки бакета архива")
		return ticketapimodels.ArchiveResult{}, err
	}
	if err = s3client.Upload(ctx, i.bucketName, objectName, body, "application/json"); err != nil {
		logger.WithField("object_name", objectName).
			WithError(err).
			Error("ошибка выгрузки архива журнала в S3")
		return ticketapimodels.ArchiveResult{}, err
	}
	eventIDs := make([]string, 0, len(events))
	for _, event := range events {
		eventIDs = append(eventIDs, event.ID)
	}
	if err = i.eventStore.DeleteByIDs(eventIDs); err != nil {
		// объект уже в S3, при повторе записи будут выгружены еще раз
		logger.WithError(err).Error("ошибка удаления выгруженных записей журнала")
		return ticketapimodels.ArchiveResult{}, err
	}
	result := ticketapimodels.ArchiveResult{
		Tickets:    len(tickets),
		Events:     len(events),
		ObjectName: objectName,
	}
	logger.
		WithField("tickets", result.Tickets).
		WithField("events", result.Events).
		WithField("object_name", objectName).
		Info("журнал событий заархивирован")
	return result, nil
}
