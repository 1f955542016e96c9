package handlers

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

// Dependencies is everything the HTTP layer needs. RateLimiter and Gatherer are optional.
type Dependencies struct {
	Store  storage.Store
	Auth   *services.AuthService
	Users  *services.UserService
	Tasks  *services.TaskService
	Habits *services.HabitService
	Games  *services.GameService
	Shop   *services.StoreService
	Export *services.ExportService
	Hub    *services.ProgressHub

	RateLimiter *middleware.RateLimiter
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger

	MetricsUser    string
	MetricsPass    string
	PprofSecret    string
	AllowedOrigins []string
	SecureCookie   bool
}

func NewRouter(d Dependencies) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.SecureCookie, d.Logger)
	userHandler := NewUserHandler(d.Users)
	taskHandler := NewTaskHandler(d.Tasks, d.Export, d.Logger)
	habitHandler := NewHabitHandler(d.Habits)
	gameHandler := NewGameHandler(d.Games)
	storeHandler := NewStoreHandler(d.Shop)
	wsHandler := NewWSHandler(d.Hub, d.AllowedOrigins, d.Logger)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.MonitorMiddleware)

	r.HandleFunc("/health", healthHandler(d.Store)).Methods(http.MethodGet)

	if d.Gatherer != nil {
		r.Handle("/metrics", middleware.BasicAuthMiddleware(d.MetricsUser, d.MetricsPass)(
			promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}),
		)).Methods(http.MethodGet)
	}
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(d.PprofSecret)(http.DefaultServeMux))

	api := r.PathPrefix("/api/v1").Subrouter()
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware)
	}

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/badges", storeHandler.ListBadges).Methods(http.MethodGet)
	api.HandleFunc("/achievements", userHandler.ListAchievements).Methods(http.MethodGet)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(d.Auth))

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	protected.HandleFunc("/users/me", userHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", userHandler.UpdateProfile).Methods(http.MethodPatch)
	protected.HandleFunc("/users/me/stats", userHandler.GetUserStats).Methods(http.MethodGet)
	protected.HandleFunc("/users/me/achievements", userHandler.GetAchievements).Methods(http.MethodGet)
	protected.HandleFunc("/users/me/xp", userHandler.AwardXP).Methods(http.MethodPost)
	protected.HandleFunc("/users/me/fitness-plans/complete", userHandler.CompleteFitnessPlan).Methods(http.MethodPost)
	protected.HandleFunc("/users/me/devices", userHandler.RegisterDevice).Methods(http.MethodPost)
	protected.HandleFunc("/leaderboard", userHandler.GetLeaderboard).Methods(http.MethodGet)

	// export must be registered before /tasks/{id}
	protected.HandleFunc("/tasks/export", taskHandler.ExportTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/complete", taskHandler.CompleteTask).Methods(http.MethodPost)

	protected.HandleFunc("/habits", habitHandler.ListHabits).Methods(http.MethodGet)
	protected.HandleFunc("/habits", habitHandler.CreateHabit).Methods(http.MethodPost)
	protected.HandleFunc("/habits/{id}", habitHandler.UpdateHabit).Methods(http.MethodPatch)
	protected.HandleFunc("/habits/{id}", habitHandler.DeleteHabit).Methods(http.MethodDelete)
	protected.HandleFunc("/habits/{id}/progress", habitHandler.RecordProgress).Methods(http.MethodPost)

	protected.HandleFunc("/games/scores", gameHandler.SubmitScore).Methods(http.MethodPost)
	protected.HandleFunc("/games/scores", gameHandler.ListScores).Methods(http.MethodGet)

	protected.HandleFunc("/store", storeHandler.GetStore).Methods(http.MethodGet)
	protected.HandleFunc("/store/purchase", storeHandler.PurchaseBadge).Methods(http.MethodPost)

	protected.HandleFunc("/ws/progress", wsHandler.ProgressStream).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
		gorillaHandlers.AllowCredentials(),
	)
	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(slog.NewLogLogger(d.Logger.Handler(), slog.LevelError)),
		gorillaHandlers.PrintRecoveryStack(true),
	)

	return corsHandler(recovery(r))
}

func healthHandler(st storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "database connection failed")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "habitquest-api"})
	}
}
