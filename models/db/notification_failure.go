package dbmodels

import (
	"time"

	"employee-portal-backend/models"

	"github.com/lib/pq"
)

// NotificationFailure - журнал неотправленных уведомлений.
// Запись создается только при ошибке отправки и переводится в SENT при успешном повторе
type NotificationFailure struct {
	BaseModel
	Channel       string                    `gorm:"type:varchar(50)"` // пока только email
	Domain        models.TicketDomain       `gorm:"type:varchar(20);index"`
	Event         models.NotificationEvent  `gorm:"type:varchar(50)"`
	TicketID      *string                   `gorm:"type:varchar(36);index"`
	ActorID       *string                   `gorm:"type:varchar(36)"`
	Recipients    pq.StringArray            `gorm:"type:text[]"`
	Subject       string                    `gorm:"type:varchar(255)"`
	HTMLBody      string
	TextBody      string
	LastError     string
	Status        models.NotificationStatus `gorm:"type:varchar(20);index"`
	Attempts      int
	LastAttemptAt time.Time
}
