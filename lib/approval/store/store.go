package approvalstore

import (
	"time"

	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.TicketApproval) (id string, err error)
	GetByID(id string) (rec *dbmodels.TicketApproval, err error)
	ListByTicket(ticketID string) (list []dbmodels.TicketApproval, err error)
	ListPendingByApprover(email string) (list []dbmodels.TicketApproval, err error)
	CountPending(ticketID string) (count int64, err error)
	// DecideIfPending - условное решение по задаче согласования:
	// применяется только к строке в состоянии PENDING, принадлежащей согласующему.
	// updated=false означает чужую, уже решенную или несуществующую задачу
	DecideIfPending(id, approverEmail string, state models.ApprovalState, note string, decidedAt time.Time) (updated bool, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.TicketApproval) (id string, err error) {
	err = i.db.
		Omit("Ticket", "Approver").
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.TicketApproval, error) {
	rec := dbmodels.TicketApproval{}
	err := i.db.
		Where("id = ?", id).
		Preload("Ticket").
		Preload("Approver").
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

func (i impl) ListByTicket(ticketID string) (list []dbmodels.TicketApproval, err error) {
	list = []dbmodels.TicketApproval{}
	err = i.db.
		Where("ticket_id = ?", ticketID).
		Order("stage ASC, requested_at ASC").
		Preload("Approver").
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

func (i impl) ListPendingByApprover(email string) (list []dbmodels.TicketApproval, err error) {
	list = []dbmodels.TicketApproval{}
	err = i.db.
		Where("approver_email = ?", email).
		Where("state = ?", models.AStatePending).
		Order("requested_at ASC").
		Preload("Ticket").
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

func (i impl) CountPending(ticketID string) (count int64, err error) {
	err = i.db.
		Model(&dbmodels.TicketApproval{}).
		Where("ticket_id = ?", ticketID).
		Where("state = ?", models.AStatePending).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i impl) DecideIfPending(id, approverEmail string, state models.ApprovalState, note string, decidedAt time.Time) (updated bool, err error) {
	tx := i.db.
		Model(&dbmodels.TicketApproval{}).
		Where("id = ?", id).
		Where("approver_email = ?", approverEmail).
		Where("state = ?", models.AStatePending).
		Updates(map[string]interface{}{
			"state":      state,
			"note":       note,
			"decided_at": decidedAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
