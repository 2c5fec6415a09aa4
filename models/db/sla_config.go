package dbmodels

import "employee-portal-backend/models"

// SlaConfig - целевое время решения по приоритету, в минутах.
// Отсутствие строки означает значение по умолчанию (models.TicketPriority.DefaultSlaMinutes)
type SlaConfig struct {
	BaseModel
	Priority      models.TicketPriority `gorm:"type:varchar(20);uniqueIndex"`
	TargetMinutes int
}
