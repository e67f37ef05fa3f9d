package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"questboardAPI/handlers"
	"questboardAPI/internal/notification"
	"questboardAPI/internal/ws"
	"questboardAPI/middleware"
	"questboardAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool             *pgxpool.Pool
	jwtSecret          []byte
	adminEmails        []string
	emailService       *services.EmailService
	authService        *services.AuthService
	participantService *services.ParticipantService
	taskService        *services.TaskService
	leaderboardService *services.LeaderboardService
	submissionService  *services.SubmissionService
	hub                *ws.Hub
	dispatcher         *services.ReviewDispatcher
	fcmService         *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	jwtSecret = []byte(secret)

	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			adminEmails = append(adminEmails, e)
		}
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	emailService = services.NewEmailService()
	authService = services.NewAuthService(dbPool, emailService, jwtSecret)
	participantService = services.NewParticipantService(dbPool)
	taskService = services.NewTaskService(dbPool)
	leaderboardService = services.NewLeaderboardService(dbPool)
	submissionService = services.NewSubmissionService(dbPool)
	hub = ws.NewHub()

	dispatcher = services.NewReviewDispatcher(leaderboardService, participantService, emailService, hub)
	submissionService.SetDispatcher(dispatcher)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	if len(adminEmails) > 0 {
		if err := authService.SeedAdmins(ctx, adminEmails); err != nil {
			log.Fatal("Failed to seed admin accounts:", err)
		}
		log.Printf("Seeded %d admin account(s)", len(adminEmails))
	} else {
		log.Println("Warning: ADMIN_EMAILS is empty, no admin can log in")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	authHandler := handlers.NewAuthHandler(authService)
	participantHandler := handlers.NewParticipantHandler(authService, participantService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, participantService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, participantService)
	taskHandler := handlers.NewTaskHandler(taskService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, leaderboardService)
	devHandler := handlers.NewDevHandler(dbPool, authService, adminEmails)

	r := mux.NewRouter()

	// WebSocket upgrades bypass the standard middleware chain.
	r.HandleFunc("/api/leaderboard/ws", realtimeHandler.Serve)

	standardRouter := r.PathPrefix("/").Subrouter()

	generalLimiter := middleware.NewIPRateLimiter(rate.Limit(10), 30)
	defer generalLimiter.Stop()
	// OTP endpoints get a much tighter budget to keep mailbox spam down.
	otpLimiter := middleware.NewIPRateLimiter(rate.Limit(0.2), 3)
	defer otpLimiter.Stop()

	standardRouter.Use(generalLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "questboard-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// PUBLIC API
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api").Subrouter()

	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")

	adminAuth := middleware.AdminAuth(jwtSecret)
	participantAuth := middleware.ParticipantAuth(jwtSecret)

	api.Handle("/participant/request-otp", otpLimiter.Middleware(http.HandlerFunc(participantHandler.RequestOTP))).Methods("POST")
	api.HandleFunc("/participant/verify-otp", participantHandler.VerifyOTP).Methods("POST")
	api.Handle("/participant/validate", participantAuth(http.HandlerFunc(participantHandler.ValidateToken))).Methods("GET")

	api.HandleFunc("/auth/check-email", authHandler.CheckAdminEmail).Methods("POST")
	api.Handle("/auth/request-otp", otpLimiter.Middleware(http.HandlerFunc(authHandler.RequestOTP))).Methods("POST")
	api.HandleFunc("/auth/verify-otp", authHandler.VerifyOTP).Methods("POST")
	api.Handle("/auth/validate", adminAuth(http.HandlerFunc(authHandler.ValidateAdminToken))).Methods("GET")

	// -------------------------------------------------------------------------
	// PARTICIPANT ROUTES (REQUIRE PARTICIPANT TOKEN)
	// -------------------------------------------------------------------------
	participantRoutes := api.PathPrefix("").Subrouter()
	participantRoutes.Use(participantAuth)

	participantRoutes.HandleFunc("/participant/profile", participantHandler.UpdateProfile).Methods("PUT")
	participantRoutes.HandleFunc("/participant/devices", participantHandler.RegisterDevice).Methods("POST")
	participantRoutes.HandleFunc("/submissions", submissionHandler.Create).Methods("POST")
	participantRoutes.HandleFunc("/submissions/mine", submissionHandler.MySubmissions).Methods("GET")

	// -------------------------------------------------------------------------
	// ADMIN ROUTES (REQUIRE ADMIN TOKEN)
	// -------------------------------------------------------------------------
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuth)

	admin.HandleFunc("/submissions", submissionHandler.AdminList).Methods("GET")
	admin.HandleFunc("/submissions/{id}", submissionHandler.Review).Methods("PATCH")
	admin.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	admin.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	admin.HandleFunc("/tasks/stats", taskHandler.AdminStats).Methods("GET")
	admin.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	admin.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	admin.HandleFunc("/export/leaderboard", leaderboardHandler.ExportCSV).Methods("GET")
	admin.HandleFunc("/export/excel", leaderboardHandler.ExportExcel).Methods("GET")

	// -------------------------------------------------------------------------
	// DEV ROUTES (DISABLED IN PRODUCTION)
	// -------------------------------------------------------------------------
	dev := api.PathPrefix("/dev").Subrouter()
	dev.Use(adminAuth)
	dev.HandleFunc("/reset-db", devHandler.ResetDB).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	dispatcher.Stop()
	authService.Stop()
	hub.Close()

	log.Println("Server shutdown complete")
}
