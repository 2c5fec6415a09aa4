package notificationfailurestore

import (
	"time"

	"employee-portal-backend/models"
	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.NotificationFailure) (id string, err error)
	GetByID(id string) (rec *dbmodels.NotificationFailure, err error)
	Update(id string, updMap map[string]interface{}) error
	// ClaimRetry - условный захват записи под повторную отправку: попытка засчитывается,
	// только если запись все еще FAILED и счетчик попыток не изменился.
	// claimed=false означает проигранную гонку с параллельным повтором
	ClaimRetry(id string, prevAttempts int, attemptAt time.Time) (claimed bool, err error)
	List(filter ticketapimodels.NotificationFailureFilter) (list []dbmodels.NotificationFailure, err error)
	ListCount(filter ticketapimodels.NotificationFailureFilter) (count int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.NotificationFailure) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.NotificationFailure, error) {
	rec := dbmodels.NotificationFailure{}
	err := i.db.
		Where("id = ?", id).
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
		Model(&dbmodels.NotificationFailure{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) ClaimRetry(id string, prevAttempts int, attemptAt time.Time) (claimed bool, err error) {
	tx := i.db.
		Model(&dbmodels.NotificationFailure{}).
		Where("id = ?", id).
		Where("status = ?", models.NotificationStatusFailed).
		Where("attempts = ?", prevAttempts).
		Updates(map[string]interface{}{
			"attempts":        prevAttempts + 1,
			"last_attempt_at": attemptAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (i impl) applyFilter(tx *gorm.DB, filter ticketapimodels.NotificationFailureFilter) *gorm.DB {
	if filter.Domain != "" {
		tx = tx.Where("domain = ?", filter.Domain)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	return tx
}

func (i impl) List(filter ticketapimodels.NotificationFailureFilter) (list []dbmodels.NotificationFailure, err error) {
	list = []dbmodels.NotificationFailure{}
	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	err = i.applyFilter(i.db.Model(&dbmodels.NotificationFailure{}), filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
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

func (i impl) ListCount(filter ticketapimodels.NotificationFailureFilter) (count int64, err error) {
	err = i.applyFilter(i.db.Model(&dbmodels.NotificationFailure{}), filter).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
