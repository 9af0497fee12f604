package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyeonu91/schoolreserve/api"
	"github.com/hyeonu91/schoolreserve/config"
	"github.com/hyeonu91/schoolreserve/internal/service/payment"
	"github.com/hyeonu91/schoolreserve/internal/service/reserve"
	"github.com/hyeonu91/schoolreserve/internal/service/school"
	"github.com/rs/zerolog/log"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, reserveSvc reserve.ReserveUseCase, paymentSvc payment.PaymentUseCase, schoolSvc school.SchoolUseCase) error {
	router := newRouter(reserveSvc, paymentSvc, schoolSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.Info().Str("address", cfg.HTTP.Address).Msg("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(reserveSvc reserve.ReserveUseCase, paymentSvc payment.PaymentUseCase, schoolSvc school.SchoolUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	apiGroup := router.Group("/api")
	api.NewReserveHandler(reserveSvc).Register(apiGroup.Group("/reserves"))
	api.NewPaymentHandler(paymentSvc).Register(apiGroup.Group("/payments"))
	api.NewSchoolHandler(schoolSvc).Register(apiGroup.Group("/schools"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
