package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "admin-console/internal/adapters/web"
	"admin-console/internal/app"
	"admin-console/internal/core"
	"admin-console/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	if err := core.SeedAdmin(ctx, pool, core.SeedConfig{
		Name:     os.Getenv("ADMIN_NAME"),
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}); err != nil {
		log.Fatalf("seed: %v", err)
	}

	users := core.NewUserService(pool)
	departments := core.NewDepartmentService(pool)
	svc := app.NewAppService(users, departments, jwtSecret)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
