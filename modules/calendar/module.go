package calendar

import (
	"fmt"

	"smart-schedule/core/cache"
	"smart-schedule/core/config"
	"smart-schedule/core/database"
	"smart-schedule/core/logger"
	bookingRepository "smart-schedule/modules/booking/repository"
	busyCache "smart-schedule/modules/calendar/cache"
	"smart-schedule/modules/calendar/provider"
	"smart-schedule/modules/calendar/repository"
	"smart-schedule/modules/calendar/service"
)

// Init wires the busy-time aggregator. redisClient may be nil unless the
// redis cache backend is selected.
func Init(cfg *config.Config, db database.Database, redisClient cache.Cache) (service.BusyTimeService, error) {
	credentialRepo := repository.NewCredentialRepository(db)
	bookingRepo := bookingRepository.NewBookingRepository(db)

	registry := provider.NewDefaultRegistry(provider.Options{
		GoogleClientID:     cfg.GoogleAPI.ClientID,
		GoogleClientSecret: cfg.GoogleAPI.ClientSecret,
		GoogleBaseURL:      cfg.GoogleAPI.BaseURL,
		OutlookGraphURL:    cfg.Outlook.GraphBaseURL,
	})

	var store busyCache.BusyCache
	switch cfg.Availability.CacheBackend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis busy cache requires a redis client")
		}
		store = busyCache.NewRedisCache(redisClient, cfg.Availability.CacheTTL)
	case "", "memory":
		store = busyCache.NewMemoryCache(cfg.Availability.CacheSize, cfg.Availability.CacheTTL)
	case "none":
		store = busyCache.Noop{}
	default:
		return nil, fmt.Errorf("unknown busy cache backend %q", cfg.Availability.CacheBackend)
	}
	logger.Info("Calendar:Init", "cache_backend", cfg.Availability.CacheBackend, "cache_ttl", cfg.Availability.CacheTTL)

	return service.NewBusyTimeService(credentialRepo, bookingRepo, registry, store, cfg.Availability.ProviderTimeout), nil
}
