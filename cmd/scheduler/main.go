package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/kapatiran/lending-engine/internal/config"
	"github.com/kapatiran/lending-engine/internal/repository"
)

func main() {
	log.Println("Starting collection scheduler...")

	// Local overrides before viper reads the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	installmentRepo := repository.NewInstallmentRepository(db)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily job flipping unpaid installments past their due date to late.
	// The penalty itself is assessed at collection time, not here; this job
	// only persists the overdue flag the collection sheet reads.
	_, err = c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		flipped, err := installmentRepo.MarkOverdue(ctx, time.Now())
		if err != nil {
			log.Printf("Overdue flagging failed: %v", err)
			return
		}
		log.Printf("Flagged %d installments as late", flipped)
	})
	if err != nil {
		log.Fatalf("Error scheduling overdue flagging job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}
