package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/worklink/api-go/controllers"
	"github.com/worklink/api-go/middleware"
	"github.com/worklink/api-go/notifications"
	"github.com/worklink/api-go/services"
	"github.com/worklink/api-go/stores"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	connectionStore := stores.NewConnectionStore(db)
	userStore := stores.NewUserStore(db)
	notifier := notifications.NewDBNotifier(db)
	connectionService := services.NewConnectionService(connectionStore, userStore, notifier, services.NewSystemClock())

	connectionController := controllers.NewConnectionController(connectionService)

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		SetupConnectionRoutes(protected, connectionController)
	}
}
