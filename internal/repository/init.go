package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/models"
)

type Repositories struct {
	AccountRepository interfaces.AccountRepository
}

func InitRepositories(sendpoolDB *gorm.DB) *Repositories {
	return &Repositories{
		AccountRepository: NewAccountRepository(sendpoolDB),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, sendpoolDB *gorm.DB) error {
	db, err := sendpoolDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = sendpoolDB.AutoMigrate(
		&models.SendingAccount{},
	)

	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
