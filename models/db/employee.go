package dbmodels

import (
	"fmt"
	"employee-portal-backend/models"
)

// Employee - справочник сотрудников портала, заполняется из внешнего identity-провайдера
type Employee struct {
	BaseModel
	Email           string          `gorm:"type:varchar(255);uniqueIndex"`
	FirstName       string          `gorm:"type:varchar(255)"`
	LastName        string          `gorm:"type:varchar(255)"`
	Role            models.UserRole `gorm:"type:varchar(50)"`
	SupervisorEmail string          `gorm:"type:varchar(255)"`
	IsActive        bool            `gorm:"default:true"`
}

func (e Employee) GetFullName() string {
	return fmt.Sprintf("%v %v", e.LastName, e.FirstName)
}
