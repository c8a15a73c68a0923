package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/SmartSpecsAI/smartspecs-backend/handlers"
	"github.com/SmartSpecsAI/smartspecs-backend/logging"
	"github.com/SmartSpecsAI/smartspecs-backend/middleware"
	"github.com/SmartSpecsAI/smartspecs-backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes(db *mongo.Database) error {
	_, err := db.Collection("requirements").Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys: bson.M{"projectId": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create index on requirements.projectId: %v", err)
	}

	_, err = db.Collection("requirement_history").Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys: bson.M{"requirementId": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create index on requirement_history.requirementId: %v", err)
	}

	_, err = db.Collection("meetings").Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys: bson.M{"projectId": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create index on meetings.projectId: %v", err)
	}

	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	logging.InitLogger()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Database connection failed:", err)
	}
	defer client.Disconnect(context.TODO())

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("MongoDB connection error:", err)
	}
	fmt.Println("Connected to MongoDB!")

	db := client.Database("smartspecs_db")
	if err := createIndexes(db); err != nil {
		log.Fatal(err)
	}

	// Services
	projectService := services.NewProjectService(db.Collection("projects"))
	meetingService := services.NewMeetingService(db.Collection("meetings"))
	requirementService := services.NewRequirementService(db.Collection("requirements"), db.Collection("requirement_history"))
	difyClient := services.NewDifyClient(os.Getenv("DIFY_API_URL"), os.Getenv("DIFY_API_KEY"), os.Getenv("DIFY_WORKFLOW_ID"))
	syncService := services.NewSyncService(difyClient, requirementService)
	firefliesURL := os.Getenv("FIREFLIES_API_URL")
	if firefliesURL == "" {
		firefliesURL = "https://api.fireflies.ai/graphql"
	}
	firefliesClient := services.NewFirefliesClient(firefliesURL, os.Getenv("FIREFLIES_API_KEY"))
	pendingMeetingService := services.NewPendingMeetingService(db.Collection("pending_meetings"), projectService, meetingService, requirementService, syncService)

	// Handlers
	projectHandler := handlers.NewProjectHandler(projectService)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	requirementHandler := handlers.NewRequirementHandler(requirementService)
	syncHandler := handlers.NewSyncHandler(projectService, meetingService, requirementService, syncService)
	pendingMeetingHandler := handlers.NewPendingMeetingHandler(pendingMeetingService)
	webhookHandler := handlers.NewWebhookHandler(firefliesClient, pendingMeetingService, os.Getenv("FIREFLIES_WEBHOOK_SECRET"))

	r := mux.NewRouter()

	// The webhook authenticates with an HMAC signature, not a bearer token.
	r.HandleFunc("/api/fireflies/webhook", webhookHandler.HandleFirefliesWebhook).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.GetProjectByID).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/sync", syncHandler.SyncProject).Methods("POST")

	api.HandleFunc("/meetings", meetingHandler.CreateMeeting).Methods("POST")
	api.HandleFunc("/meetings", meetingHandler.ListMeetings).Methods("GET")
	api.HandleFunc("/meetings/{id}", meetingHandler.GetMeetingByID).Methods("GET")
	api.HandleFunc("/meetings/{id}", meetingHandler.UpdateMeeting).Methods("PUT")
	api.HandleFunc("/meetings/{id}", meetingHandler.DeleteMeeting).Methods("DELETE")

	api.HandleFunc("/requirements", requirementHandler.CreateRequirement).Methods("POST")
	api.HandleFunc("/requirements", requirementHandler.ListRequirements).Methods("GET")
	api.HandleFunc("/requirements/{id}", requirementHandler.GetRequirementByID).Methods("GET")
	api.HandleFunc("/requirements/{id}", requirementHandler.EditRequirement).Methods("PUT")
	api.HandleFunc("/requirements/{id}", requirementHandler.DeleteRequirement).Methods("DELETE")
	api.HandleFunc("/requirements/{id}/history", requirementHandler.GetRequirementHistory).Methods("GET")

	api.HandleFunc("/pending-meetings", pendingMeetingHandler.ListPendingMeetings).Methods("GET")
	api.HandleFunc("/pending-meetings/{id}/accept", pendingMeetingHandler.AcceptPendingMeeting).Methods("POST")
	api.HandleFunc("/pending-meetings/{id}", pendingMeetingHandler.DeletePendingMeeting).Methods("DELETE")

	corsRouter := enableCORS(r)

	srv := &http.Server{
		Handler:      corsRouter,
		Addr:         listenAddr(os.Getenv("SERVER_PORT")),
		WriteTimeout: 120 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	fmt.Println("SmartSpecs backend running on", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

// listenAddr accepts SERVER_PORT as either a bare port ("8080") or a full
// listen address (":8080", "0.0.0.0:8080").
func listenAddr(port string) string {
	if port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := os.Getenv("CORS_ORIGIN")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
