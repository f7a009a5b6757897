package main

import (
	"flag"
	"net/http"

	"github.com/compass-ms/usernotify/shared/config"
	"github.com/compass-ms/usernotify/shared/logger"
	"github.com/compass-ms/usernotify/users/internal/router"
	"github.com/compass-ms/usernotify/users/internal/setup"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "users/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		return
	}
	defer deps.Cleanup()

	r := router.New(deps)

	port := cfg.Public.UserPort
	if port == "" {
		port = "8080"
	}
	logger.Log.Info("user service listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Log.Error("server stopped", "error", err)
	}
}
