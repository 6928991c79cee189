package routes

import (
	"foodvision-backend/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRouter(analysis *controllers.AnalysisController) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api/analysis")
	{
		api.POST("/analyze", analysis.Analyze)
		api.GET("/history/user/:userId", analysis.History)
		api.DELETE("/prediction/:id", analysis.Delete)
	}

	return r
}
