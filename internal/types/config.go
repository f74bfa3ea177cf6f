package types

type RunMode string

const (
	// ModeLocal runs the API server and the sync worker in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
	// ModeSyncWorker runs just the sync replay worker
	ModeSyncWorker RunMode = "sync_worker"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
