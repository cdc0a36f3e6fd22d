// Package api is the HTTP dispatcher in front of the raffle engine.
//
// Write requests carry the replay-stable environment of the invocation
// (sender, time, height, transaction index and attached funds); the API never
// samples the clock itself.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"raffle/internal/logger"
	"raffle/internal/raffle"
)

func NewRouter(engine *raffle.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := NewRaffleHandler(engine)

	raffles := router.Group("/raffles")
	raffles.POST("", h.Create)
	raffles.GET("/:id", h.GetRaffle)
	raffles.GET("/:id/orders", h.GetOrders)
	raffles.GET("/:id/wallets", h.GetWallets)
	raffles.GET("/:id/refunds/:wallet", h.GetRefundStatus)
	raffles.GET("/:id/draws", h.SimulateDraws)
	raffles.POST("/:id/tickets", h.BuyTickets)
	raffles.POST("/:id/winner", h.ChooseWinner)
	raffles.POST("/:id/cancel", h.Cancel)
	raffles.POST("/:id/refund", h.ClaimRefund)
	raffles.POST("/:id/owner", h.TransferOwnership)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("api: request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
