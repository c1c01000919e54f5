package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/migration"
	"github.com/smallbiznis/tillpoint/internal/observability"
	"github.com/smallbiznis/tillpoint/internal/server"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// HTTP surface plus every domain module it wires
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
