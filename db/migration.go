package db

import (
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("Запуск миграций")
	if err := DB.AutoMigrate(&dbmodels.Employee{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры Employee")
	}
	if err := DB.AutoMigrate(&dbmodels.Ticket{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры Ticket")
	}
	if err := DB.AutoMigrate(&dbmodels.TicketAssignment{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры TicketAssignment")
	}
	if err := DB.AutoMigrate(&dbmodels.TicketApproval{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры TicketApproval")
	}
	if err := DB.AutoMigrate(&dbmodels.TicketEvent{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры TicketEvent")
	}
	if err := DB.AutoMigrate(&dbmodels.SlaConfig{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры SlaConfig")
	}
	if err := DB.AutoMigrate(&dbmodels.NotificationFailure{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры NotificationFailure")
	}
	// не более одного активного назначения на заявку,
	// закрывает гонку одновременных claim
	err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_assignments_active
		ON ticket_assignments (ticket_id) WHERE unassigned_at IS NULL`).Error
	if err != nil {
		return errors.Wrap(err, "ошибка создания индекса активных назначений")
	}
	// SLA-события отправляются не более одного раза
	// (напоминание - не более одного раза на день-смещение),
	// закрывает гонку параллельных запусков монитора
	err = DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_events_single_fire
		ON ticket_events (ticket_id, type, COALESCE(payload->>'day', ''))
		WHERE type IN ('SLA_WARNING', 'SLA_BREACH', 'AUTO_CLOSE_REMINDER', 'AUTO_CLOSED')`).Error
	if err != nil {
		return errors.Wrap(err, "ошибка создания индекса SLA-событий")
	}
	log.Info("Миграция прошла успешно")
	return nil
}
