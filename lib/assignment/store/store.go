package assignmentstore

import (
	"time"

	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// CreateActive - вставка активного назначения.
	// created=false означает, что активное назначение уже существует:
	// вставка защищена частичным уникальным индексом по ticket_id
	CreateActive(rec dbmodels.TicketAssignment) (created bool, err error)
	GetActive(ticketID string) (rec *dbmodels.TicketAssignment, err error)
	CloseActive(ticketID, byUserID string, at time.Time) (closed bool, err error)
	List(ticketID string) (list []dbmodels.TicketAssignment, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) CreateActive(rec dbmodels.TicketAssignment) (created bool, err error) {
	tx := i.db.
		Omit("Engineer").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) GetActive(ticketID string) (*dbmodels.TicketAssignment, error) {
	rec := dbmodels.TicketAssignment{}
	err := i.db.
		Where("ticket_id = ?", ticketID).
		Where("unassigned_at IS NULL").
		Preload("Engineer").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) CloseActive(ticketID, byUserID string, at time.Time) (closed bool, err error) {
	tx := i.db.
		Model(&dbmodels.TicketAssignment{}).
		Where("ticket_id = ?", ticketID).
		Where("unassigned_at IS NULL").
		Updates(map[string]interface{}{
			"unassigned_at": at,
			"unassigned_by": byUserID,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) List(ticketID string) (list []dbmodels.TicketAssignment, err error) {
	list = []dbmodels.TicketAssignment{}
	err = i.db.
		Where("ticket_id = ?", ticketID).
		Order("assigned_at ASC").
		Preload("Engineer").
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
