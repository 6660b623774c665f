package config

type Config struct {
	// App: Global application metadata
	App InConfigAppConfig `mapstructure:"app"`

	// Server: Network configuration and execution environment
	Server ServerConfig `mapstructure:"server"`

	// Database: SQLite file backing the local store
	Database DatabaseConfig `mapstructure:"database"`

	// Image: Transform pipeline and upload constraints
	Image ImageConfig `mapstructure:"image"`

	// Cache: In-memory cache for fetched static image sources
	Cache CacheConfig `mapstructure:"cache"`

	// Security: CORS whitelist and request throttling
	Security SecurityConfig `mapstructure:"security"`

	// Editor: Lifetime of in-memory editing sessions
	Editor EditorConfig `mapstructure:"editor"`

	// BaseURL: The public-facing root URL used for absolute link generation
	BaseURL string `mapstructure:"base_url"`
}

type InConfigAppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`

	// StartMessage: Print the ascii logo and signature on serve
	StartMessage bool `mapstructure:"start_message"`
}

type ServerConfig struct {
	// Port: The TCP port the HTTP server will bind to (default: 9990)
	Port int `mapstructure:"port"`

	// Env: Execution context (development, production)
	Env string `mapstructure:"env"`
}

type DatabaseConfig struct {
	// Path: Location of the SQLite file (e.g., ./data/fotoforge.db)
	Path string `mapstructure:"path"`

	// MaxSize: Soft limit before the maintenance worker considers a VACUUM (e.g., "512MB")
	MaxSize string `mapstructure:"max_size"`

	// PruneInterval: Frequency of the maintenance worker (e.g., "5m")
	PruneInterval string `mapstructure:"prune_interval"`
}

type ImageConfig struct {
	// JPEGQuality: Quality for every re-encoded image (1-100, 92 matches the editor default)
	JPEGQuality int `mapstructure:"jpeg_quality"`

	// MaxUploadSize: Maximum payload for uploads (e.g., "10MB")
	MaxUploadSize string `mapstructure:"max_upload_size"`

	// AssetsDir: Directory that site-relative image URLs resolve against
	AssetsDir string `mapstructure:"assets_dir"`

	// ThumbnailSize: Edge length of project card thumbnails
	ThumbnailSize int `mapstructure:"thumbnail_size"`

	// FetchTimeout: Timeout for remote image sources (e.g., "10s")
	FetchTimeout string `mapstructure:"fetch_timeout"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// MaxCapacity: Maximum RAM allocated for cache in MB (e.g., 64)
	MaxCapacity int `mapstructure:"max_capacity"`

	// TTL: Expiration time for cached items (e.g., "30m")
	TTL string `mapstructure:"ttl"`
}

type SecurityConfig struct {
	// CorsOrigins: List of allowed origins for browser-based cross-origin requests
	CorsOrigins []string `mapstructure:"cors_origins"`

	// RateLimit: Global token-bucket limiter
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// LoginRateLimit: Stricter limiter on the login endpoint
	LoginRateLimit RateLimitConfig `mapstructure:"login_rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Requests: Number of allowed requests per time window
	Requests int `mapstructure:"requests"`

	// Window: The timeframe for the request limit (e.g., "1s", "1m")
	Window string `mapstructure:"window"`

	// Burst: Temporary allowed spike capacity above the steady-rate limit
	Burst int `mapstructure:"burst"`
}

type EditorConfig struct {
	// SessionTTL: Idle time after which an editing session is discarded (e.g., "30m")
	SessionTTL string `mapstructure:"session_ttl"`
}
