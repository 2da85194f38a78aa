package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quiz-trainer/trainer-service/internal/services"
	"github.com/quiz-trainer/trainer-service/internal/utils"
)

type HandlerManager struct {
	bankHandler    *BankHandler
	sessionHandler *SessionHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		bankHandler:    NewBankHandler(serviceManager.Bank(), serviceManager.ImportExport(), logger),
		sessionHandler: NewSessionHandler(serviceManager.Session(), serviceManager.ImportExport(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "trainer-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		banks := v1.Group("/banks")
		{
			banks.POST("/import", hm.bankHandler.ImportBank)
			banks.POST("/import/file", hm.bankHandler.ImportBankFile)
			banks.GET("", hm.bankHandler.ListBanks)
			banks.GET("/:id", hm.bankHandler.GetBank)
			banks.POST("/:id/merge", hm.bankHandler.MergeBank)
			banks.DELETE("/:id", hm.bankHandler.DeleteBank)
		}

		session := v1.Group("/session")
		{
			session.GET("", hm.sessionHandler.GetSession)
			session.POST("/start", hm.sessionHandler.StartSession)
			session.POST("/restart", hm.sessionHandler.RestartSession)
			session.POST("/respond", hm.sessionHandler.Respond)
			session.POST("/commit", hm.sessionHandler.Commit)
			session.POST("/navigate", hm.sessionHandler.Navigate)
			session.POST("/flag", hm.sessionHandler.ToggleReviewFlag)
			session.POST("/finish", hm.sessionHandler.Finish)
			session.POST("/expire", hm.sessionHandler.ExpireTimer)
			session.GET("/export", hm.sessionHandler.ExportSession)
			session.POST("/import", hm.sessionHandler.ImportSession)
			session.GET("/results", hm.sessionHandler.Results)
		}
	}
}
