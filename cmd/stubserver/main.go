package main

import (
	"flag"
	"fmt"
	"log"

	"bizarre-client/internal/config"
	"bizarre-client/internal/stub"
	"bizarre-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system variables")
	}

	config.LoadConfig(configPath)
	cfg := config.GlobalConfig

	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	store, err := stub.NewStore(cfg.Stub.DSN)
	if err != nil {
		logger.Log.Fatal("failed to open stub store", zap.Error(err))
	}
	if err := store.EnsureStaffUser("root", "root-pass"); err != nil {
		logger.Log.Fatal("failed to seed staff user", zap.Error(err))
	}
	logger.Log.Warn("stub server is for development only; the staff account uses a fixed password")

	tokens := stub.NewTokenIssuer(cfg.Stub.JWT.Secret, cfg.Stub.JWT.Expire)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	stub.NewServer(store, tokens).RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Stub.Port)
	logger.Log.Info("Stub server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Log.Fatal("Stub server failed to start", zap.Error(err))
	}
}
