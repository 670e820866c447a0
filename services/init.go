package services

import (
	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/repository"
	"github.com/outreachcrm/sendpool/services/events"
	"github.com/outreachcrm/sendpool/services/scheduler"
)

type Services struct {
	EventsPublisher  interfaces.EventsPublisher
	SchedulerService interfaces.SchedulerService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	var publisher interfaces.EventsPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			return nil, err
		}
		publisher = p
	} else {
		log.Warn("RabbitMQ URL not configured, scheduler events will not be published")
	}

	services := Services{
		EventsPublisher:  publisher,
		SchedulerService: scheduler.NewSchedulerService(cfg.SchedulerConfig, log, repos.AccountRepository, publisher),
	}

	return &services, nil
}
