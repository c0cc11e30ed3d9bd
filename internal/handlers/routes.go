package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the sales endpoints on r
func RegisterRoutes(r gin.IRouter, importHandler *ImportHandler, analyticsHandler *AnalyticsHandler) {
	bulk := r.Group("/bulk")
	{
		bulk.POST("", importHandler.UploadSales)
		bulk.GET("/template", importHandler.GetImportTemplate)
		bulk.GET("/:id", importHandler.GetImport)
	}

	r.GET("/customer/analytics", analyticsHandler.GetCustomerAnalytics)
}
