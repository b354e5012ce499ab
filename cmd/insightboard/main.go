package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/insightboard/insightboard/internal/alert"
	"github.com/insightboard/insightboard/internal/apikey"
	"github.com/insightboard/insightboard/internal/clock"
	"github.com/insightboard/insightboard/internal/cloudmetrics"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/invoice"
	"github.com/insightboard/insightboard/internal/migration"
	"github.com/insightboard/insightboard/internal/observability"
	"github.com/insightboard/insightboard/internal/providers/pdf"
	"github.com/insightboard/insightboard/internal/ratelimit"
	"github.com/insightboard/insightboard/internal/server"
	"github.com/insightboard/insightboard/internal/tenant"
	"github.com/insightboard/insightboard/internal/usage"
	"github.com/insightboard/insightboard/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		cloudmetrics.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		tenant.Module,
		apikey.Module,
		usage.Module,
		invoice.Module,
		alert.Module,
		pdf.Module,
		ratelimit.Module,

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
