package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/merchflow/merchflow/internal/billing"
	"github.com/merchflow/merchflow/internal/billingrun"
	"github.com/merchflow/merchflow/internal/clock"
	"github.com/merchflow/merchflow/internal/config"
	"github.com/merchflow/merchflow/internal/merchant"
	"github.com/merchflow/merchflow/internal/migration"
	"github.com/merchflow/merchflow/internal/offering"
	"github.com/merchflow/merchflow/internal/subscription"
	"github.com/merchflow/merchflow/pkg/db"
	"github.com/merchflow/merchflow/pkg/log"
)

// One-shot billing run, for cron or manual backfill:
//
//	billingrun -date 2026-08-29
//
// Without -date the run targets the current day in the billing timezone.
// Exits non-zero when the run fails, so cron alerts fire.
func main() {
	date := flag.String("date", "", "billing day as YYYY-MM-DD (default: today)")
	flag.Parse()

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

		fx.Invoke(func(lc fx.Lifecycle, runner *billingrun.Runner, logger *zap.Logger, sd fx.Shutdowner) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						code := runOnce(runner, logger, *date)
						_ = sd.Shutdown(fx.ExitCode(code))
					}()
					return nil
				},
			})
		}),
	)
	app.Run()
}

func runOnce(runner *billingrun.Runner, logger *zap.Logger, date string) int {
	ctx := context.Background()

	// -date resolves in the billing timezone so a backfill targets the same
	// day identity a scheduled run would.
	var day time.Time
	if date != "" {
		parsed, err := runner.ParseDay(date)
		if err != nil {
			logger.Error("invalid -date, expected YYYY-MM-DD", zap.String("date", date), zap.Error(err))
			return 2
		}
		day = parsed
	} else {
		today, err := runner.Today()
		if err != nil {
			logger.Error("resolve billing day", zap.Error(err))
			return 1
		}
		day = today
	}

	report, err := runner.RunDailyBilling(ctx, day)
	if report != nil {
		fmt.Println(report.Summary())
	}
	if err != nil {
		logger.Error("billing run failed", zap.Error(err))
		return 1
	}
	return 0
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
