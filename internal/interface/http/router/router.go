// Package router HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/library/docs"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// Handlers 全部HTTP处理器
type Handlers struct {
	Auth        *handler.AuthHandler
	Catalog     *handler.CatalogHandler
	Loan        *handler.LoanHandler
	Reservation *handler.ReservationHandler
	Report      *handler.ReportHandler
}

// Options 路由选项
type Options struct {
	Mode    string // debug | release | test
	Swagger bool
}

// New 创建Gin引擎并注册路由
func New(opts Options, auth *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	can := middleware.RequireCapability

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	{
		v1.POST("/auth/revoke", h.Auth.Revoke)

		titles := v1.Group("/titles")
		{
			titles.POST("", can(member.CapManageCatalog), h.Catalog.RegisterTitle)
			titles.GET("/:id", h.Catalog.GetTitle)
			titles.POST("/:id/delist", can(member.CapManageCatalog), h.Catalog.DelistTitle)
			titles.GET("/:id/copies", h.Catalog.ListTitleCopies)
		}

		copies := v1.Group("/copies")
		{
			copies.POST("", can(member.CapManageCatalog), h.Catalog.RegisterCopy)
			copies.GET("/:id", h.Catalog.GetCopy)
			copies.GET("/:id/status", h.Catalog.CopyStatus)
			copies.DELETE("/:id", can(member.CapManageCatalog), h.Catalog.DeleteCopy)
		}

		loans := v1.Group("/loans")
		{
			loans.POST("", can(member.CapCirculate), h.Loan.CreateLoan)
			loans.GET("/:id", can(member.CapViewOwn), h.Loan.GetLoan)
			loans.POST("/:id/cancel", can(member.CapCirculate), h.Loan.CancelLoan)
			loans.DELETE("/:id", can(member.CapCirculate), h.Loan.DeleteLoan)
		}

		v1.POST("/returns", can(member.CapCirculate), h.Loan.RegisterReturn)

		reservations := v1.Group("/reservations")
		{
			reservations.POST("", can(member.CapReserve), h.Reservation.CreateReservation)
			reservations.POST("/expire", can(member.CapSweep), h.Reservation.ExpireReservations)
			reservations.GET("/:id", can(member.CapViewOwn), h.Reservation.GetReservation)
			reservations.POST("/:id/cancel", can(member.CapReserve), h.Reservation.CancelReservation)
			reservations.DELETE("/:id", can(member.CapCirculate), h.Reservation.DeleteReservation)
		}

		patrons := v1.Group("/patrons")
		patrons.Use(can(member.CapViewOwn))
		{
			patrons.GET("/:id/loans", h.Loan.ListPatronLoans)
			patrons.GET("/:id/reservations", h.Reservation.ListPatronReservations)
		}

		reports := v1.Group("/reports")
		reports.Use(can(member.CapReport))
		{
			reports.GET("/overdue", h.Report.Overdue)
			reports.GET("/summary", h.Report.Summary)
		}
	}

	return r
}
