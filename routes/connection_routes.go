package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/worklink/api-go/controllers"
)

func SetupConnectionRoutes(protected *gin.RouterGroup, connectionController *controllers.ConnectionController) {
	connections := protected.Group("/connections")
	{
		connections.GET("", connectionController.GetMyConnections)
		connections.GET("/pending", connectionController.GetPendingRequests)
		connections.GET("/sent", connectionController.GetSentRequests)
		connections.GET("/stats", connectionController.GetStats)
		connections.GET("/suggestions", connectionController.GetSuggestions)
		connections.GET("/status/:userId", connectionController.GetConnectionStatus)
		connections.GET("/mutual/:userId", connectionController.GetMutualConnections)

		connections.POST("/requests", connectionController.SendConnectionRequest)
		connections.POST("/:id/accept", connectionController.AcceptConnectionRequest)
		connections.POST("/:id/reject", connectionController.RejectConnectionRequest)
		connections.POST("/:id/withdraw", connectionController.WithdrawConnectionRequest)
		connections.DELETE("/:id", connectionController.RemoveConnection)
	}

	users := protected.Group("/users")
	{
		users.POST("/:userId/block", connectionController.BlockUser)
	}
}
