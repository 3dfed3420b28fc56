package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/smallbiznis/maziwa/internal/config"
	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
	feedrequestdomain "github.com/smallbiznis/maziwa/internal/feedrequest/domain"
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The SQL migrations target postgres. Other dialects (sqlite for
		// local development, mysql) get the schema from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&feeddomain.Feed{},
				&feedrequestdomain.FeedRequest{},
				&ledgerdomain.Transaction{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
