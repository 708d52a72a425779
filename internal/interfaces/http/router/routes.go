package router

import (
	"github.com/gin-gonic/gin"

	"github.com/erp/vatchallan/internal/interfaces/http/handler"
)

// Handlers bundles the handlers behind the API surface.
type Handlers struct {
	System       *handler.SystemHandler
	MasterData   *handler.MasterDataHandler
	VendorConfig *handler.VendorConfigHandler
	Registration *handler.RegistrationHandler
	Invoice      *handler.InvoiceHandler
	Report       *handler.ReportHandler
}

// systemRoutes registers the health endpoints directly on the API group.
type systemRoutes struct {
	system *handler.SystemHandler
}

func (s systemRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", s.system.Health)
	rg.GET("/ready", s.system.Ready)
}

// RegisterAll wires every domain group into the router.
func RegisterAll(r *Router, h Handlers) {
	r.Register(systemRoutes{system: h.System})

	masterdata := NewDomainGroup("masterdata", "/masterdata")
	masterdata.POST("/sync", h.MasterData.SyncAll)
	masterdata.POST("/zones/sync", h.MasterData.SyncZones)
	masterdata.POST("/divisions/sync", h.MasterData.SyncDivisions)
	masterdata.POST("/circles/sync", h.MasterData.SyncCircles)
	masterdata.POST("/commission-rates/sync", h.MasterData.SyncCommissionRates)
	masterdata.POST("/service-types/sync", h.MasterData.SyncServiceTypes)
	masterdata.GET("/zones", h.MasterData.ListZones)
	masterdata.GET("/divisions", h.MasterData.ListDivisions)
	masterdata.GET("/circles", h.MasterData.ListCircles)
	masterdata.GET("/commission-rates", h.MasterData.ListCommissionRates)
	masterdata.GET("/service-types", h.MasterData.ListServiceTypes)
	r.Register(masterdata)

	vendorConfig := NewDomainGroup("vendor-config", "/vendor-config")
	vendorConfig.GET("", h.VendorConfig.Get)
	vendorConfig.PUT("", h.VendorConfig.Save)
	vendorConfig.POST("/token", h.VendorConfig.FetchToken)
	r.Register(vendorConfig)

	retailers := NewDomainGroup("retailers", "/retailers")
	retailers.POST("", h.Registration.RegisterRetailer)
	retailers.GET("", h.Registration.ListRetailers)
	retailers.GET("/:id", h.Registration.GetRetailer)
	retailers.POST("/:id/branches", h.Registration.RegisterBranch)
	retailers.GET("/:id/branches", h.Registration.ListBranches)
	retailers.POST("/:id/documents", h.Registration.UploadDocument)
	retailers.GET("/:id/documents", h.Registration.ListDocuments)
	r.Register(retailers)

	invoices := NewDomainGroup("invoices", "/invoices")
	invoices.POST("", h.Invoice.Create)
	invoices.GET("", h.Invoice.List)
	invoices.POST("/sync", h.Invoice.SyncAll)
	invoices.GET("/:id", h.Invoice.Get)
	invoices.POST("/:id/sync", h.Invoice.Sync)
	invoices.POST("/:id/return", h.Invoice.Return)
	invoices.GET("/:id/schallan", h.Invoice.DownloadSchallan)
	r.Register(invoices)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/invoices", h.Report.ChallanRegister)
	reports.GET("/branch-sales", h.Report.BranchSales)
	reports.GET("/service-type-sales", h.Report.ServiceTypeSales)
	r.Register(reports)
}
