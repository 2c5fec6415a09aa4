package ticketeventstore

import (
	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.TicketEvent) (id string, err error)
	// CreateUnique - вставка с ON CONFLICT DO NOTHING по индексу единоразовых событий.
	// created=false означает, что событие уже было записано (этим или параллельным запуском)
	CreateUnique(rec dbmodels.TicketEvent) (created bool, err error)
	List(ticketID string) (list []dbmodels.TicketEvent, err error)
	ListByType(ticketID string, eventType models.TicketEventType) (list []dbmodels.TicketEvent, err error)
	HasEvent(ticketID string, eventType models.TicketEventType) (bool, error)
	ListOldByTickets(ticketIDs []string) (list []dbmodels.TicketEvent, err error)
	DeleteByIDs(ids []string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.TicketEvent) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) CreateUnique(rec dbmodels.TicketEvent) (created bool, err error) {
	tx := i.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) List(ticketID string) (list []dbmodels.TicketEvent, err error) {
	list = []dbmodels.TicketEvent{}
	err = i.db.
		Preload("Creator").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) ListByType(ticketID string, eventType models.TicketEventType) (list []dbmodels.TicketEvent, err error) {
	list = []dbmodels.TicketEvent{}
	err = i.db.
		Where("ticket_id = ?", ticketID).
		Where("type = ?", eventType).
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) HasEvent(ticketID string, eventType models.TicketEventType) (bool, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.TicketEvent{}).
		Where("ticket_id = ?", ticketID).
		Where("type = ?", eventType).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (i impl) ListOldByTickets(ticketIDs []string) (list []dbmodels.TicketEvent, err error) {
	list = []dbmodels.TicketEvent{}
	err = i.db.
		Where("ticket_id IN ?", ticketIDs).
		Order("ticket_id ASC, created_at ASC").
		Find(&list).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) DeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := i.db.
		Where("id IN ?", ids).
		Delete(&dbmodels.TicketEvent{}).
		Error
	if err != nil {
		return err
	}
	return nil
}
