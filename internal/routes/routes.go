package routes

import (
	"net/http"

	"github.com/Dune005/syfte/internal/app"
	"github.com/Dune005/syfte/internal/handler"
	"github.com/Dune005/syfte/internal/metrics"
	"github.com/Dune005/syfte/internal/middleware"
	"github.com/Dune005/syfte/internal/render"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, app.Cfg)
	user := handler.NewUserHandler(app.UserService, app.AuthService)
	goal := handler.NewGoalHandler(app.GoalService, app.SharingService)
	action := handler.NewActionHandler(app.ActionService)
	saving := handler.NewSavingHandler(app.SavingService)
	progress := handler.NewProgressHandler(app.StreakService, app.AchievementService)
	friend := handler.NewFriendHandler(app.FriendService)
	notification := handler.NewNotificationHandler(app.NotificationService)
	export := handler.NewExportHandler(app.ExportService)
	dashboard := handler.NewDashboardHandler(app.DashboardService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()
	protected := middleware.RequireAuth

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/health", health.Check)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/csrf", auth.CSRF)
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", rateLimiter(auth.ResetPassword))
	mux.HandleFunc("GET /api/auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /api/auth/google/callback", rateLimiter(auth.GoogleCallback))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/auth/me", protected(auth.Me))

	// Users
	mux.HandleFunc("GET /api/users/me", protected(user.Me))
	mux.HandleFunc("PATCH /api/users/me", protected(user.Update))
	mux.HandleFunc("DELETE /api/users/me", protected(user.Delete))
	mux.HandleFunc("POST /api/users/me/password", protected(user.ChangePassword))
	mux.HandleFunc("POST /api/users/me/avatar", protected(user.UploadAvatar))
	mux.HandleFunc("DELETE /api/users/me/avatar", protected(user.DeleteAvatar))
	mux.HandleFunc("GET /api/users/search", protected(user.Search))

	// Goals
	mux.HandleFunc("GET /api/goals", protected(goal.List))
	mux.HandleFunc("POST /api/goals", protected(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", protected(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", protected(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", protected(goal.Delete))
	mux.HandleFunc("GET /api/goals/{id}/participants", protected(goal.Participants))
	mux.HandleFunc("POST /api/goals/{id}/participants", protected(goal.Invite))
	mux.HandleFunc("DELETE /api/goals/{id}/participants/{userID}", protected(goal.RemoveParticipant))

	// Actions
	mux.HandleFunc("GET /api/actions", protected(action.List))
	mux.HandleFunc("POST /api/actions", protected(action.Create))
	mux.HandleFunc("PUT /api/actions/{id}", protected(action.Update))
	mux.HandleFunc("DELETE /api/actions/{id}", protected(action.Delete))

	// Savings
	mux.HandleFunc("GET /api/savings", protected(saving.List))
	mux.HandleFunc("POST /api/savings", protected(saving.Create))
	mux.HandleFunc("GET /api/savings/stats", protected(saving.Stats))
	mux.HandleFunc("DELETE /api/savings/{id}", protected(saving.Delete))

	// Streak & achievements
	mux.HandleFunc("GET /api/streak", protected(progress.Streak))
	mux.HandleFunc("GET /api/achievements", protected(progress.Achievements))

	// Friends
	mux.HandleFunc("GET /api/friends", protected(friend.List))
	mux.HandleFunc("GET /api/friends/requests", protected(friend.Requests))
	mux.HandleFunc("POST /api/friends/requests", protected(friend.SendRequest))
	mux.HandleFunc("POST /api/friends/requests/{id}/accept", protected(friend.Accept))
	mux.HandleFunc("POST /api/friends/requests/{id}/decline", protected(friend.Decline))
	mux.HandleFunc("GET /api/friends/leaderboard", protected(friend.Leaderboard))
	mux.HandleFunc("DELETE /api/friends/{userID}", protected(friend.Remove))

	// Notifications
	mux.HandleFunc("GET /api/notifications/vapid-public-key", protected(notification.VAPIDPublicKey))
	mux.HandleFunc("POST /api/notifications/subscriptions", protected(notification.Subscribe))
	mux.HandleFunc("DELETE /api/notifications/subscriptions", protected(notification.Unsubscribe))
	mux.HandleFunc("GET /api/notifications/preferences", protected(notification.Preferences))
	mux.HandleFunc("PUT /api/notifications/preferences", protected(notification.UpdatePreferences))
	mux.HandleFunc("POST /api/notifications/test", protected(notification.Test))

	// Export
	mux.HandleFunc("GET /api/export/csv", protected(export.CSV))
	mux.HandleFunc("GET /api/export/pdf", protected(export.PDF))
	mux.HandleFunc("GET /api/export/json", protected(export.JSON))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", protected(dashboard.Get))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, http.StatusNotFound, "not found")
	})

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (read by SecurityHeaders and CORS)
		middleware.SecurityHeaders,
		middleware.CORS, // answers preflight before CSRF sees it
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		middleware.RequestMetrics, // must wrap the mux directly to see r.Pattern
	)

	return handler
}
