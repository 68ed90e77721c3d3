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
	"github.com/rs/cors"

	"zulaBack/internal/config"
	"zulaBack/internal/taxi"
	"zulaBack/internal/taxi/report"
	"zulaBack/internal/taxi/timeutil"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	cfgPath := flag.String("config", configPath, "path to YAML config")
	addrFlag := flag.String("addr", "", "HTTP network address (overrides PORT and server.address)")
	printReport := flag.Bool("report", false, "print the fleet summary on shutdown")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		errorLog.Fatal(err)
	}
	if err := timeutil.SetLocation(cfg.Timezone); err != nil {
		errorLog.Printf("timezone %q: %v, using UTC", cfg.Timezone, err)
	}

	addr := cfg.Server.Address
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if *addrFlag != "" {
		addr = *addrFlag
	}
	if addr == "" {
		addr = ":4001"
	}

	rdb, err := openRedis(cfg)
	if err != nil {
		errorLog.Fatal(err)
	}
	if rdb != nil {
		defer rdb.Close()
		infoLog.Printf("Mirroring cab positions to redis at %s", cfg.Redis.Addr)
	}

	app, err := initializeApp(cfg, rdb, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}

	handler, err := app.routes()
	if err != nil {
		errorLog.Fatal(err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := taxi.StartTaxiWorkers(ctx, app.taxiDeps); err != nil {
		errorLog.Fatal(err)
	}

	// Hail requests may block for up to HailWaitMax.
	srv := &http.Server{
		Addr:         addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(handler),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: app.taxiDeps.Config.HailWaitMax + 10*time.Second,
	}

	go func() {
		infoLog.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorLog.Fatal(err)
		}
	}()

	<-ctx.Done()
	infoLog.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errorLog.Printf("shutdown: %v", err)
	}

	if *printReport {
		sum, err := app.system.FleetSummary()
		if err != nil {
			errorLog.Printf("fleet summary: %v", err)
			return
		}
		if err := report.PrintFleetSummary(os.Stdout, sum); err != nil {
			errorLog.Printf("fleet summary: %v", err)
		}
	}
}
