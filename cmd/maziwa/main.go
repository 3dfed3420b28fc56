package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/maziwa/internal/clock"
	"github.com/smallbiznis/maziwa/internal/config"
	"github.com/smallbiznis/maziwa/internal/feed"
	"github.com/smallbiznis/maziwa/internal/feedrequest"
	"github.com/smallbiznis/maziwa/internal/ledger"
	"github.com/smallbiznis/maziwa/internal/migration"
	"github.com/smallbiznis/maziwa/internal/observability"
	"github.com/smallbiznis/maziwa/internal/scheduler"
	"github.com/smallbiznis/maziwa/internal/server"
	"github.com/smallbiznis/maziwa/internal/settlement"
	"github.com/smallbiznis/maziwa/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		feed.Module,
		feedrequest.Module,
		ledger.Module,
		settlement.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
