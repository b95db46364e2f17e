package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	lifecyclesvc "edu_admin/internal/api/lifecycle/service"
	platformsvc "edu_admin/internal/api/platform/service"
	syncmodels "edu_admin/internal/api/sync/models"
	syncsvc "edu_admin/internal/api/sync/service"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// InitEngine khởi tạo adapter, actuator và run service — phần lõi của
// engine, dùng chung giữa HTTP surface và scheduler worker.
func InitEngine() *syncsvc.SyncRunService {
	log := logger.GetAppLogger()
	cfg := global.ServerConfig
	fetchTimeout := time.Duration(cfg.AdapterFetchSec) * time.Second
	maxRetries := cfg.ExternalMaxRetries
	baseDelay := time.Duration(cfg.ExternalBackoffMs) * time.Millisecond

	// Đăng ký adapter theo config — base URL rỗng = platform tắt.
	// Adapter được bọc retry/backoff cho lỗi transient.
	if cfg.HotmartAPIBaseURL != "" {
		adapter := platformsvc.NewHotmartAdapter(cfg.HotmartAPIBaseURL, cfg.HotmartAPIKey, fetchTimeout)
		if err := platformsvc.RegisterAdapter(platformsvc.WithRetry(adapter, maxRetries, baseDelay)); err != nil {
			log.Fatalf("Failed to register hotmart adapter: %v", err)
		}
		log.Info("🔄 [INIT] Adapter hotmart đã đăng ký")
	} else {
		log.Warn("🔄 [INIT] Thiếu HOTMART_API_BASE_URL, adapter hotmart tắt")
	}

	if cfg.CurseducaAPIBaseURL != "" {
		adapter := platformsvc.NewCurseducaAdapter(cfg.CurseducaAPIBaseURL, cfg.CurseducaAPIKey, fetchTimeout)
		if err := platformsvc.RegisterAdapter(platformsvc.WithRetry(adapter, maxRetries, baseDelay)); err != nil {
			log.Fatalf("Failed to register curseduca adapter: %v", err)
		}
		log.Info("🔄 [INIT] Adapter curseduca đã đăng ký")
	} else {
		log.Warn("🔄 [INIT] Thiếu CURSEDUCA_API_BASE_URL, adapter curseduca tắt")
	}

	if cfg.ChatAPIBaseURL != "" && cfg.ChatBotToken != "" && cfg.ChatGuildID != "" {
		adapter := platformsvc.NewDiscordActivityAdapter(cfg.ChatAPIBaseURL, cfg.ChatBotToken, cfg.ChatGuildID, fetchTimeout)
		if err := platformsvc.RegisterAdapter(platformsvc.WithRetry(adapter, maxRetries, baseDelay)); err != nil {
			log.Fatalf("Failed to register discord activity adapter: %v", err)
		}
		log.Info("🔄 [INIT] Adapter discord_activity đã đăng ký")
	} else {
		log.Warn("🔄 [INIT] Thiếu config chat platform, adapter discord_activity tắt")
	}

	// Actuator — kênh nil khi thiếu config, decision của kênh đó bị skip
	var crm lifecyclesvc.CrmTagClient
	if cfg.CrmAPIBaseURL != "" && cfg.CrmAPIKey != "" {
		crm = lifecyclesvc.NewActiveCampaignClient(cfg.CrmAPIBaseURL, cfg.CrmAPIKey)
	} else {
		log.Warn("🔄 [INIT] Thiếu config CRM, actuation tag tắt")
	}

	var chat lifecyclesvc.ChatRoleClient
	if cfg.ChatAPIBaseURL != "" && cfg.ChatBotToken != "" && cfg.ChatGuildID != "" {
		chat = lifecyclesvc.NewDiscordRoleClient(cfg.ChatAPIBaseURL, cfg.ChatBotToken, cfg.ChatGuildID)
	} else {
		log.Warn("🔄 [INIT] Thiếu config chat platform, actuation role tắt")
	}

	actuator, err := lifecyclesvc.NewActuator(crm, chat)
	if err != nil {
		log.Fatalf("Failed to create actuator: %v", err)
	}

	runService, err := syncsvc.NewSyncRunService(actuator)
	if err != nil {
		log.Fatalf("Failed to create sync run service: %v", err)
	}

	return runService
}

// InitDefaultData đảm bảo job đồng bộ tổng mặc định tồn tại.
// Job được tạo disabled — admin bật và chỉnh lịch qua API.
func InitDefaultData(runService *syncsvc.SyncRunService) {
	log := logger.GetAppLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jobs := runService.Jobs()
	exists, err := jobs.DocumentExists(ctx, bson.M{"name": "universal-sync"})
	if err != nil {
		log.WithField("error", err.Error()).Error("🔄 [INIT] Không kiểm tra được job mặc định")
		return
	}
	if exists {
		return
	}

	_, err = jobs.InsertOne(ctx, syncmodels.SyncJob{
		Name:     "universal-sync",
		SyncType: syncmodels.SyncTypeAll,
		Schedule: "0 3 * * *",
		Enabled:  false,
	})
	if err != nil {
		log.WithField("error", err.Error()).Error("🔄 [INIT] Không tạo được job mặc định")
		return
	}
	log.Info("🔄 [INIT] Đã tạo job mặc định universal-sync (disabled)")
}
