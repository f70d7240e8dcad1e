package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/merchflow/merchflow/internal/billing"
	"github.com/merchflow/merchflow/internal/billingrun"
	"github.com/merchflow/merchflow/internal/clock"
	"github.com/merchflow/merchflow/internal/config"
	"github.com/merchflow/merchflow/internal/merchant"
	"github.com/merchflow/merchflow/internal/migration"
	"github.com/merchflow/merchflow/internal/offering"
	"github.com/merchflow/merchflow/internal/scheduler"
	"github.com/merchflow/merchflow/internal/subscription"
	"github.com/merchflow/merchflow/pkg/db"
	"github.com/merchflow/merchflow/pkg/log"
)

// Billing daemon: runs the scheduler without the HTTP API. Deploy this when
// the API tier scales horizontally but billing should tick from one place.
func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		merchant.Module,
		offering.Module,
		subscription.Module,
		billing.Module,
		billingrun.Module,
		scheduler.Module,
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
