package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchflow/merchflow/internal/billing"
	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	"github.com/merchflow/merchflow/internal/billingrun"
	"github.com/merchflow/merchflow/internal/config"
	"github.com/merchflow/merchflow/internal/merchant"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	"github.com/merchflow/merchflow/internal/offering"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	"github.com/merchflow/merchflow/internal/subscription"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	merchant.Module,
	offering.Module,
	subscription.Module,
	billing.Module,
	billingrun.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine          *gin.Engine
	merchantSvc     merchantdomain.Service
	offeringSvc     offeringdomain.Service
	subscriptionSvc subscriptiondomain.Service
	billingSvc      billingdomain.Service
	billingRunner   *billingrun.Runner
}

type ServerParams struct {
	fx.In

	Engine          *gin.Engine
	MerchantSvc     merchantdomain.Service
	OfferingSvc     offeringdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	BillingSvc      billingdomain.Service
	BillingRunner   *billingrun.Runner
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Engine,
		merchantSvc:     p.MerchantSvc,
		offeringSvc:     p.OfferingSvc,
		subscriptionSvc: p.SubscriptionSvc,
		billingSvc:      p.BillingSvc,
		billingRunner:   p.BillingRunner,
	}
}

func RegisterRoutes(s *Server) {
	v1 := s.engine.Group("/v1")

	v1.POST("/merchants", s.CreateMerchant)
	v1.GET("/merchants", s.ListMerchants)
	v1.GET("/merchants/:id", s.GetMerchantByID)
	v1.POST("/merchants/:id/activate", s.ActivateMerchant)
	v1.GET("/merchants/:id/subscriptions", s.ListMerchantSubscriptions)
	v1.GET("/merchants/:id/billing-records", s.ListMerchantBillingRecords)

	v1.POST("/offerings", s.CreateOffering)
	v1.GET("/offerings", s.ListOfferings)
	v1.PATCH("/offerings/:id/price", s.UpdateOfferingPrice)

	v1.POST("/subscriptions", s.CreateSubscription)
	v1.GET("/subscriptions/:id", s.GetSubscriptionByID)
	v1.DELETE("/subscriptions/:id", s.CancelSubscription)

	v1.POST("/billing-records/:id/pay", s.MarkBillingRecordPaid)
	v1.POST("/billing/runs", s.TriggerBillingRun)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
