package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5180"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDataDir          = "/var/lib/nftreg-server/data"
	DefaultWALSyncMode      = "batch"
	DefaultWALSyncInterval  = 100 * time.Millisecond
	DefaultSnapshotKeep     = 3
	DefaultSnapshotInterval = time.Hour
	DefaultContentEngine    = "badger"

	DefaultRegistryName   = "registry"
	DefaultRegistrySymbol = "NFT"

	// Default mint window: effectively always open until configured.
	DefaultBeginDate = "2000-01-01 00:00:00"
	DefaultEndDate   = "2099-12-31 23:59:59"

	DefaultRateLimitRPS   = 50.0
	DefaultRateLimitBurst = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Registry: RegistrySection{
			Name:      DefaultRegistryName,
			Symbol:    DefaultRegistrySymbol,
			BeginDate: DefaultBeginDate,
			EndDate:   DefaultEndDate,
		},
		Storage: StorageSection{
			DataDir:          DefaultDataDir,
			WALSyncMode:      DefaultWALSyncMode,
			WALSyncInterval:  DefaultWALSyncInterval,
			SnapshotKeep:     DefaultSnapshotKeep,
			SnapshotInterval: DefaultSnapshotInterval,
			ContentEngine:    DefaultContentEngine,
		},
		Security: SecuritySection{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
