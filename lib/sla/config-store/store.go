package slaconfigstore

import (
	"employee-portal-backend/models"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	List() (list []dbmodels.SlaConfig, err error)
	Upsert(priority models.TicketPriority, targetMinutes int) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) List() (list []dbmodels.SlaConfig, err error) {
	list = []dbmodels.SlaConfig{}
	err = i.db.
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

func (i impl) Upsert(priority models.TicketPriority, targetMinutes int) error {
	rec := dbmodels.SlaConfig{
		Priority:      priority,
		TargetMinutes: targetMinutes,
	}
	err := i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "priority"}},
			DoUpdates: clause.AssignmentColumns([]string{"target_minutes", "updated_at"}),
		}).
		Create(&rec).
		Error
	if err != nil {
		return err
	}
	return nil
}
