package handlers

import "github.com/outreachcrm/sendpool/interfaces"

type APIHandlers struct {
	Scheduler *SchedulerHandler
	Accounts  *AccountsHandler
}

func InitHandlers(scheduler interfaces.SchedulerService) *APIHandlers {
	return &APIHandlers{
		Scheduler: NewSchedulerHandler(scheduler),
		Accounts:  NewAccountsHandler(scheduler),
	}
}
