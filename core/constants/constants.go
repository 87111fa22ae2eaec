package constants

import "time"

const (
	DefaultRequestTimeout  = 10 * time.Second
	DefaultProviderTimeout = 3 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 25
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"

	DefaultBusyCacheTTL  = 5 * time.Minute
	DefaultBusyCacheSize = 10000

	DateLayout = "2006-01-02"

	RedisKeyBusyTime = "busy"

	TaskTypeNoSlots   = "availability:no_slots"
	QueueNoSlots      = "availability.no_slots"
	QueueNotification = "notifications"
)
