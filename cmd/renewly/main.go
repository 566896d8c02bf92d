package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/internal/observability"
	"github.com/renewly/renewly/internal/server"
	"github.com/renewly/renewly/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
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
