package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/merchflow/merchflow/internal/clock"
	"github.com/merchflow/merchflow/internal/config"
	"github.com/merchflow/merchflow/internal/migration"
	"github.com/merchflow/merchflow/internal/scheduler"
	"github.com/merchflow/merchflow/internal/server"
	"github.com/merchflow/merchflow/pkg/db"
	"github.com/merchflow/merchflow/pkg/log"
)

// Monolith entry point: HTTP API plus the in-process billing scheduler.
func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
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
