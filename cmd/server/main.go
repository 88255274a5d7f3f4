package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/config"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/db"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/scoring"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/server"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env: %v", err)
	}

	cfg := config.Load()

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if *migrateOnly {
		log.Println("migrations applied")
		return
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	model, err := scoring.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("model: %v", err)
	}

	handler := server.New(conn, server.Options{
		Model:      model,
		UploadDir:  cfg.UploadDir,
		SamplePath: cfg.SamplePath,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
