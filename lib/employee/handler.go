package employeehandler

import (
	"employee-portal-backend/db"
	employeestore "employee-portal-backend/lib/employee/store"
	dbmodels "employee-portal-backend/models/db"

	"github.com/pkg/errors"
)

type Provider interface {
	GetByID(id string) (dbmodels.Employee, error)
	GetByEmail(email string) (dbmodels.Employee, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: employeestore.NewInstance(db.DB),
	}
}

type impl struct {
	store employeestore.Provider
}

func (i impl) GetByID(id string) (dbmodels.Employee, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return dbmodels.Employee{}, errors.Wrap(err, "ошибка получения сотрудника")
	}
	if rec == nil || !rec.IsActive {
		return dbmodels.Employee{}, errors.New("сотрудник не найден")
	}
	return *rec, nil
}

func (i impl) GetByEmail(email string) (dbmodels.Employee, error) {
	rec, err := i.store.GetByEmail(email)
	if err != nil {
		return dbmodels.Employee{}, errors.Wrap(err, "ошибка получения сотрудника")
	}
	if rec == nil || !rec.IsActive {
		return dbmodels.Employee{}, errors.New("сотрудник не найден")
	}
	return *rec, nil
}
