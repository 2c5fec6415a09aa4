package ticketstore

import (
	"time"

	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Ticket) (id string, err error)
	GetByID(id string) (rec *dbmodels.Ticket, err error)
	Update(id string, updMap map[string]interface{}) error
	// UpdateStatusIf - условная смена статуса: применяется только если текущий статус совпадает.
	// updated=false означает проигранную гонку со сменой статуса в параллельной операции
	UpdateStatusIf(id string, oldStatus, newStatus models.TicketStatus, updMap map[string]interface{}) (updated bool, err error)
	GetLastNumber(prefix string) (number string, err error)
	List(filter ticketapimodels.TicketFilter) (list []dbmodels.Ticket, err error)
	ListCount(filter ticketapimodels.TicketFilter) (count int64, err error)
	ListUnfinished() (list []dbmodels.Ticket, err error)
	ListResolved() (list []dbmodels.Ticket, err error)
	ListClosedBefore(moment time.Time) (list []dbmodels.Ticket, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Ticket) (id string, err error) {
	err = i.db.
		Omit("Requester", "Assignments", "Approvals").
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Ticket, error) {
	rec := dbmodels.Ticket{}
	err := i.db.
		Where("id = ?", id).
		Preload("Requester").
		Preload("Assignments").
		Preload("Assignments.Engineer").
		Preload("Approvals").
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	err := i.db.
		Model(&dbmodels.Ticket{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) UpdateStatusIf(id string, oldStatus, newStatus models.TicketStatus, updMap map[string]interface{}) (updated bool, err error) {
	if updMap == nil {
		updMap = map[string]interface{}{}
	}
	updMap["status"] = newStatus
	tx := i.db.
		Model(&dbmodels.Ticket{}).
		Where("id = ?", id).
		Where("status = ?", oldStatus).
		Updates(updMap)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) GetLastNumber(prefix string) (number string, err error) {
	rec := dbmodels.Ticket{}
	err = i.db.
		Where("number LIKE ?", prefix+"-%").
		Order("number DESC").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.Number, nil
}

func (i impl) applyFilter(tx *gorm.DB, filter ticketapimodels.TicketFilter) *gorm.DB {
	if filter.Domain != "" {
		tx = tx.Where("domain = ?", filter.Domain)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		tx = tx.Where("priority = ?", filter.Priority)
	}
	if filter.RequesterID != "" {
		tx = tx.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		tx = tx.Where("number ILIKE ? OR title ILIKE ?", search, search)
	}
	if filter.EngineerID != "" {
		tx = tx.Where(`id IN (SELECT ticket_id FROM ticket_assignments
			WHERE engineer_id = ? AND unassigned_at IS NULL)`, filter.EngineerID)
	}
	return tx
}

func (i impl) List(filter ticketapimodels.TicketFilter) (list []dbmodels.Ticket, err error) {
	list = []dbmodels.Ticket{}
	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	tx := i.applyFilter(i.db.Model(&dbmodels.Ticket{}), filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Preload("Requester").
		Preload("Assignments").
		Preload("Assignments.Engineer")
	err = tx.Find(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) ListCount(filter ticketapimodels.TicketFilter) (count int64, err error) {
	err = i.applyFilter(i.db.Model(&dbmodels.Ticket{}), filter).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListUnfinished - заявки, по которым еще идет отсчет SLA
func (i impl) ListUnfinished() (list []dbmodels.Ticket, err error) {
	list = []dbmodels.Ticket{}
	err = i.db.
		Where("status NOT IN ?", []models.TicketStatus{models.TicketStatusResolved, models.TicketStatusClosed}).
		Order("created_at ASC").
		Preload("Requester").
		Preload("Assignments").
		Preload("Assignments.Engineer").
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

func (i impl) ListResolved() (list []dbmodels.Ticket, err error) {
	list = []dbmodels.Ticket{}
	err = i.db.
		Where("status = ?", models.TicketStatusResolved).
		Order("resolved_at ASC").
		Preload("Requester").
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

func (i impl) ListClosedBefore(moment time.Time) (list []dbmodels.Ticket, err error) {
	list = []dbmodels.Ticket{}
	err = i.db.
		Where("status = ?", models.TicketStatusClosed).
		Where("closed_at < ?", moment).
		Order("closed_at ASC").
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
