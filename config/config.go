package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret string `json:"jwt_secret"`
	} `json:"security"`

	Matching struct {
		TopK      int     `json:"top_k"`
		Threshold float64 `json:"threshold"`
		Leniency  float64 `json:"leniency"`
	} `json:"matching"`

	Assistant struct {
		Name string `json:"name"`
	} `json:"assistant"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Matching.TopK <= 0 {
		c.Matching.TopK = 3
	}
	if c.Matching.Threshold <= 0 {
		c.Matching.Threshold = 0.65
	}
	if c.Matching.Leniency <= 0 {
		c.Matching.Leniency = 0.07
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = "WeMind AI"
	}

	return c
}
