package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/Akram409/leafora-web-server/internal/config"
	"github.com/Akram409/leafora-web-server/internal/database"
	"github.com/Akram409/leafora-web-server/internal/handlers"
	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/middleware"
	"github.com/Akram409/leafora-web-server/internal/routes"
	"github.com/Akram409/leafora-web-server/internal/services"
	"github.com/Akram409/leafora-web-server/internal/store"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL (backs the identity gateway)
	log.Printf("Connecting to PostgreSQL...")
	pg, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer pg.Close()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Connect to MongoDB (mask password in the log)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		maskedURI := cfg.MongoURI
		if strings.Contains(maskedURI, "@") {
			parts := strings.Split(maskedURI, "@")
			if len(parts) > 0 && strings.Contains(parts[0], ":") {
				userPass := strings.Split(parts[0], ":")
				if len(userPass) >= 3 {
					maskedURI = strings.Replace(maskedURI, userPass[2], "***", 1)
				}
			}
		}
		log.Printf("MongoDB URI: %s", maskedURI)
	}
	mongoClient, mongoDB, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo(mongoClient)

	// Identity gateway on PostgreSQL
	gateway := identity.NewService(pg, cfg.JWTSecret, cfg.TokenTTL)
	if err := gateway.InitTables(); err != nil {
		log.Fatal("Failed to initialize gateway tables:", err)
	}
	log.Println("✅ Identity gateway tables initialized")

	// Stores and services
	userStore := store.NewMongoUserStore(mongoDB)
	userService := services.NewUserService(userStore, gateway)
	cache := services.NewCacheService(rdb)
	analytics := services.NewAnalyticsService(userStore, cache)
	revoker := services.NewRevocationService(rdb)

	// Cloudinary is optional; profile image uploads degrade without it
	var uploads *services.CloudinaryService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		uploads, err = services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			uploads = nil
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Image uploads will not be available")
	}

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: security headers + in-process per-IP and login limiters.
	// Non-production: Redis-based sliding window only.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimit(rdb))
	}

	routes.SetupRoutes(r, routes.Handlers{
		Auth:     handlers.NewAuthHandler(userService, gateway, revoker, cfg.TokenTTL),
		Admin:    handlers.NewAdminHandler(userService, analytics),
		Profile:  handlers.NewProfileHandler(userService, uploads),
		Presence: handlers.NewPresenceHandler(userService, gateway),
	}, gateway, revoker, userService)

	log.Printf("🚀 Leafora admin server running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
