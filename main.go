package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"wemind/assistant"
	"wemind/broker"
	"wemind/config"
	"wemind/controllers"
	"wemind/db"
	"wemind/router"
	"wemind/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env é opcional (produção usa env reais)
	_ = godotenv.Load()

	cfg := config.Get(getenv("CONFIG_PATH", "config.json"))

	db.SetConfigurations(cfg)
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	// identidade do assistente precisa existir antes do hub receber tráfego
	aiUser, err := assistant.EnsureIdentity(database, cfg.Assistant.Name)
	if err != nil {
		log.Fatalf("assistant identity: %v", err)
	}
	aiSvc := assistant.NewService(aiUser.Name, aiUser.ID)
	hub := broker.NewHub(aiUser.Name, aiSvc)

	controllers.Setup(cfg, hub, aiSvc)

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, cfg)

	workers.StartAssistantWorker(database, hub, aiSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("WeMind listening on :%s", cfg.ApiPort)
	log.Fatal(srv.ListenAndServe())
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
