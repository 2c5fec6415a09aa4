package models

type UserRole string

const (
	UserRoleEmployee    UserRole = "EMPLOYEE"
	UserRoleITAdmin     UserRole = "IT_ADMIN"
	UserRoleTravelAdmin UserRole = "TRAVEL_ADMIN"
	UserRoleSuperAdmin  UserRole = "SUPER_ADMIN"
)

var roleHumanName = map[UserRole]string{
	UserRoleEmployee:    "Сотрудник",
	UserRoleITAdmin:     "Администратор ИТ-заявок",
	UserRoleTravelAdmin: "Администратор командировок",
	UserRoleSuperAdmin:  "Суперадмин системы",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleITAdmin || r == UserRoleTravelAdmin || r == UserRoleSuperAdmin
}

// HasDomainAccess - админ работает только с заявками своего домена, суперадмин - без ограничений
func (r UserRole) HasDomainAccess(domain TicketDomain) bool {
	switch r {
	case UserRoleSuperAdmin:
		return true
	case UserRoleITAdmin:
		return domain == TicketDomainIT
	case UserRoleTravelAdmin:
		return domain == TicketDomainTravel
	}
	return false
}

const SystemUser = "Система"
