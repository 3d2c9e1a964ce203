package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/handlers"
	"github.com/sawtna-yabni/community-backend/internal/jobs"
	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	app *fiber.App,
	store storage.Store,
	otpService *services.OTPService,
	tokenService *services.TokenService,
	pointsService *services.PointsService,
	notificationJob *jobs.NotificationJob,
) {
	authHandler := handlers.NewAuthHandler(store, otpService, tokenService)
	categoryHandler := handlers.NewCategoryHandler(store)
	articleHandler := handlers.NewArticleHandler(store, pointsService)
	surveyHandler := handlers.NewSurveyHandler(store, pointsService)
	gameHandler := handlers.NewGameHandler(store, pointsService)
	pollHandler := handlers.NewPollHandler(store, pointsService)
	discussionHandler := handlers.NewDiscussionHandler(store, pointsService, notificationJob)
	userHandler := handlers.NewUserHandler(store, pointsService)

	protected := middleware.Protect(tokenService, store)
	adminOnly := middleware.AdminOnly()

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/resend", authHandler.ResendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Get("/profile", protected, authHandler.GetProfile)
	auth.Put("/profile", protected, authHandler.UpdateProfile)
	auth.Put("/password", protected, authHandler.ChangePassword)

	// Categories
	categories := api.Group("/categories")
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.Get)
	categories.Post("/", protected, adminOnly, categoryHandler.Create)
	categories.Put("/:id", protected, adminOnly, categoryHandler.Update)
	categories.Delete("/:id", protected, adminOnly, categoryHandler.Delete)

	// Articles
	articles := api.Group("/articles")
	articles.Get("/", articleHandler.List)
	articles.Get("/:id", articleHandler.Get)
	articles.Get("/:id/survey", surveyHandler.GetByArticle)
	articles.Post("/:id/read", protected, articleHandler.MarkAsRead)
	articles.Post("/", protected, adminOnly, articleHandler.Create)
	articles.Put("/:id", protected, adminOnly, articleHandler.Update)
	articles.Delete("/:id", protected, adminOnly, articleHandler.Delete)

	// Surveys (article quizzes)
	surveys := api.Group("/surveys")
	surveys.Get("/:id", surveyHandler.Get)
	surveys.Post("/:id/submit", protected, surveyHandler.Submit)
	surveys.Get("/:id/results", protected, surveyHandler.Results)
	surveys.Post("/", protected, adminOnly, surveyHandler.Create)
	surveys.Delete("/:id", protected, adminOnly, surveyHandler.Delete)

	// Games
	games := api.Group("/games")
	games.Get("/", gameHandler.List)
	games.Get("/history", protected, gameHandler.History)
	games.Get("/:id", gameHandler.Get)
	games.Post("/:id/complete", protected, gameHandler.Complete)
	games.Post("/", protected, adminOnly, gameHandler.Create)
	games.Put("/:id", protected, adminOnly, gameHandler.Update)
	games.Delete("/:id", protected, adminOnly, gameHandler.Delete)

	// Polls
	polls := api.Group("/polls")
	polls.Get("/", pollHandler.List)
	polls.Get("/:id", pollHandler.Get)
	polls.Get("/:id/results", pollHandler.Results)
	polls.Post("/:id/vote", protected, pollHandler.Vote)
	polls.Post("/", protected, adminOnly, pollHandler.Create)
	polls.Put("/:id", protected, adminOnly, pollHandler.Update)
	polls.Delete("/:id", protected, adminOnly, pollHandler.Delete)

	// Discussion sessions
	sessions := api.Group("/sessions")
	sessions.Get("/", discussionHandler.List)
	sessions.Get("/:id", discussionHandler.Get)
	sessions.Post("/:id/register", protected, discussionHandler.Register)
	sessions.Post("/:id/attend", protected, discussionHandler.Attend)
	sessions.Get("/:id/attendees", protected, adminOnly, discussionHandler.Attendees)
	sessions.Post("/", protected, adminOnly, discussionHandler.Create)
	sessions.Put("/:id", protected, adminOnly, discussionHandler.Update)
	sessions.Delete("/:id", protected, adminOnly, discussionHandler.Delete)

	// Session polls
	sessions.Get("/:id/polls", discussionHandler.ListPolls)
	sessions.Post("/:id/polls", protected, adminOnly, discussionHandler.CreatePoll)
	sessions.Post("/polls/:pollId/vote", protected, discussionHandler.VotePoll)
	sessions.Get("/polls/:pollId/results", protected, discussionHandler.PollResults)
	sessions.Put("/polls/:pollId/close", protected, adminOnly, discussionHandler.ClosePoll)

	// Points and leaderboard
	api.Get("/leaderboard", userHandler.Leaderboard)
	api.Get("/me/rank", protected, userHandler.MyRank)
	api.Get("/me/points", protected, userHandler.MyPoints)

	// Admin user management
	users := api.Group("/users", protected, adminOnly)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
}
