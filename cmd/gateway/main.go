package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/nextlearn/nextlearn-lms/internal/api/http"
	"github.com/nextlearn/nextlearn-lms/internal/auth"
	"github.com/nextlearn/nextlearn-lms/internal/chat"
	"github.com/nextlearn/nextlearn-lms/internal/config"
	"github.com/nextlearn/nextlearn-lms/internal/db"
	"github.com/nextlearn/nextlearn-lms/internal/grading"
	"github.com/nextlearn/nextlearn-lms/internal/llm"
	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/progress"
	"github.com/nextlearn/nextlearn-lms/internal/quiz"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, database, err := db.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = db.Close(closeCtx, client)
	}()
	store := lms.NewMongoStore(database)

	// --- Services ---
	llmClient := llm.New(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, cfg.GradeTimeout)
	engine := grading.NewEngine(llmClient)
	prog := progress.NewService(store)
	quizSvc := quiz.NewService(store, engine, prog)
	authSvc := auth.NewService(cfg.AuthSecret, cfg.TokenTTL, store)
	hub := chat.NewHub()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public
	r.Post("/api/auth/register", api.RegisterHandler(store))
	r.Post("/api/auth/login", api.LoginHandler(authSvc))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(authSvc))

		pr.Get("/api/auth/me", api.MeHandler(store))

		// users; the path user is the owner, admins pass via the fallback perm
		ownProfile := func(r *http.Request) bool {
			return chi.URLParam(r, "userID") == rbac.SubjectFromContext(r.Context())
		}
		pr.With(rbac.Require("user:list")).
			Get("/api/users", api.ListUsersHandler(store))
		pr.With(rbac.RequireOwnerOr("user:manage", ownProfile)).
			Get("/api/users/{userID}", api.GetUserHandler(store))
		pr.With(rbac.RequireOwnerOr("user:manage", ownProfile)).
			Put("/api/users/{userID}", api.UpdateUserHandler(store))

		// courses
		pr.With(rbac.Require("course:view")).
			Get("/api/courses", api.ListCoursesHandler(store))
		pr.With(rbac.Require("course:create")).
			Post("/api/courses", api.CreateCourseHandler(store))
		pr.With(rbac.Require("course:view")).
			Get("/api/courses/{courseID}", api.GetCourseHandler(store))
		pr.With(rbac.Require("course:update_own")).
			Put("/api/courses/{courseID}", api.UpdateCourseHandler(store))
		pr.With(rbac.Require("course:delete_own")).
			Delete("/api/courses/{courseID}", api.DeleteCourseHandler(store))
		pr.With(rbac.RequireAny("course:view", "course:enroll")).
			Post("/api/courses/{courseID}/enroll", api.EnrollHandler(store))

		// materials
		pr.With(rbac.Require("material:create")).
			Post("/api/materials", api.CreateMaterialHandler(store, prog))
		pr.With(rbac.Require("material:view")).
			Get("/api/materials/{materialID}", api.GetMaterialHandler(store))
		pr.With(rbac.Require("material:view")).
			Get("/api/courses/{courseID}/materials", api.ListCourseMaterialsHandler(store))
		pr.With(rbac.Require("material:update")).
			Put("/api/materials/{materialID}", api.UpdateMaterialHandler(store))
		pr.With(rbac.Require("material:delete")).
			Delete("/api/materials/{materialID}", api.DeleteMaterialHandler(store, prog))
		pr.With(rbac.Require("material:like")).
			Post("/api/materials/{materialID}/like", api.LikeMaterialHandler(store))

		// quizzes
		pr.With(rbac.Require("quiz:create")).
			Post("/api/quizzes", api.CreateQuizHandler(store, prog))
		pr.With(rbac.Require("quiz:generate")).
			Post("/api/quizzes/generate", api.GenerateQuizHandler(store, llmClient, prog))
		pr.With(rbac.Require("quiz:view")).
			Get("/api/courses/{courseID}/quizzes", api.ListCourseQuizzesHandler(store))
		pr.With(rbac.Require("quiz:view")).
			Get("/api/quizzes/{quizID}", api.GetQuizHandler(store))
		pr.With(rbac.Require("quiz:submit")).
			Post("/api/quizzes/{quizID}/submit", api.SubmitQuizHandler(store, quizSvc))
		pr.With(rbac.Require("quiz:view")).
			Get("/api/submissions", api.ListSubmissionsHandler(store))

		// progress
		pr.With(rbac.Require("progress:view")).
			Get("/api/progress/course/{courseID}", api.GetCourseProgressHandler(prog))
		pr.With(rbac.Require("progress:view")).
			Post("/api/progress/material/{materialID}/complete", api.CompleteMaterialHandler(store, prog))
		pr.With(rbac.Require("progress:view")).
			Post("/api/progress/course/{courseID}/time", api.AddTimeSpentHandler(store))
		pr.With(rbac.Require("analytics:view")).
			Get("/api/progress/analytics/course/{courseID}", api.CourseAnalyticsHandler(store, prog))

		// chat
		pr.With(rbac.Require("chat:send")).
			Get("/api/chat/ws/{courseID}", chat.ServeWS(hub, store))
		pr.With(rbac.Require("chat:view")).
			Get("/api/chat/messages/{courseID}", api.ChatHistoryHandler(store))
		pr.With(rbac.Require("chat:pin")).
			Post("/api/chat/{courseID}/pin/{messageID}", api.PinMessageHandler(store))

		// ai
		pr.With(rbac.Require("ai:generate")).
			Post("/api/ai/generate-content", api.GenerateContentHandler(llmClient))
		pr.With(rbac.Require("ai:assist")).
			Post("/api/ai/analyze-performance", api.AnalyzePerformanceHandler(store, llmClient))
		pr.With(rbac.Require("ai:assist")).
			Post("/api/ai/recommendations", api.RecommendationsHandler(store, llmClient))
		pr.With(rbac.Require("ai:assist")).
			Post("/api/ai/chat-assistant", api.AssistantHandler(store, llmClient))

		// admin
		pr.With(rbac.Require("admin:dashboard")).
			Get("/api/admin/dashboard", api.DashboardHandler(store))
		pr.With(rbac.Require("admin:manage_users")).
			Put("/api/admin/users/{userID}/role", api.SetUserRoleHandler(store))
		pr.With(rbac.Require("admin:manage_users")).
			Delete("/api/admin/users/{userID}", api.AdminDeleteUserHandler(store))
		pr.With(rbac.Require("admin:audit")).
			Get("/api/admin/audit", api.ListAuditHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.MongoDB)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("serve: %v", err)
		}
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
