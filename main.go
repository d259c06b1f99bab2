package main

import (
	"time"

	"github.com/pitchforge/pitchforge/config"
	"github.com/pitchforge/pitchforge/models"
	"github.com/pitchforge/pitchforge/routes"
	"github.com/pitchforge/pitchforge/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Author{}, &models.Startup{}, &models.UploadedFile{}, &models.PageView{})

	media, err := utils.NewMediaStore(cfg)
	if err != nil {
		utils.Sugar.Fatalf("media store init failed: %v", err)
	}

	// Reclaim uploads whose startup write never landed (best-effort)
	utils.StartOrphanSweeper(db, media,
		time.Duration(cfg.UploadSweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.UploadOrphanTTLMinutes)*time.Minute)

	r := routes.SetupRouter(db, media)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
