package router

import (
	"log"

	"wemind/config"
	"wemind/controllers"
	"wemind/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
// Public routes + authenticated routes + "validated" routes (Authorizer) +
// reviewer routes (Reviewerizer).
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	// Websocket: o token vem na query (handshake de browser não manda header)
	api.GET("/ws", controllers.ChatSocket)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	// Questionnaire (participant)
	validated.POST("/questionnaire", Logger(), controllers.SubmitQuestionnaire)

	// Chat
	validated.GET("/chat-groups", Logger(), controllers.GetGroups)
	validated.GET("/messages", Logger(), controllers.GetMessages)
	validated.POST("/messages", Logger(), controllers.PostMessage)
	validated.POST("/support-chat/start", Logger(), controllers.StartSupportChat)

	// Mailbox
	validated.GET("/mailbox", Logger(), controllers.GetMailbox)
	validated.POST("/mailbox/:id/read", Logger(), controllers.MarkMailRead)

	// Reviewer routes
	reviewer := validated.Group("")
	reviewer.Use(Reviewerizer())

	reviewer.GET("/assignments", Logger(), controllers.GetAssignments)
	reviewer.POST("/assignments/:id/approve", Logger(), controllers.ApproveAssignment)
	reviewer.POST("/assignments/:id/reject", Logger(), controllers.RejectAssignment)

	log.Printf("Routes initialized")
}
