package config

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	Workers   int    `env:"REPORT_WORKERS, default=4"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Routing    RoutingConfig
	Pipeline   PipelineConfig
	Boundaries BoundaryConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ifta_miles"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// RoutingConfig drives the external route resolver adapter.
type RoutingConfig struct {
	RouteBaseURL   string        `env:"ROUTE_BASE_URL,   default=https://router.project-osrm.org"`
	GeocodeBaseURL string        `env:"GEOCODE_BASE_URL, default=https://nominatim.openstreetmap.org"`
	UserAgent      string        `env:"ROUTING_USER_AGENT, default=ifta-miles/1.0"`
	Timeout        time.Duration `env:"ROUTE_TIMEOUT,    default=15s"`
	MaxAttempts    int           `env:"ROUTE_MAX_ATTEMPTS, default=4"`
	CacheTTL       time.Duration `env:"ROUTE_CACHE_TTL,  default=720h"`
}

// PipelineConfig carries the segmentation/attribution business tunables.
type PipelineConfig struct {
	HomeState           string   `env:"HOME_STATE,            default=CA"`
	VirtualReturnStates []string `env:"VIRTUAL_RETURN_STATES, default=AZ,NV"`
	HubCity             string   `env:"HUB_CITY,              default=Fontana"`
	GapThresholdDays    int      `env:"GAP_THRESHOLD_DAYS,    default=3"`
	LookaheadWindow     int      `env:"LOOKAHEAD_WINDOW,      default=4"`
	MinMileage          float64  `env:"MIN_MILEAGE_THRESHOLD, default=0.1"`
	MaxConcurrentLegs   int      `env:"MAX_CONCURRENT_LEGS,   default=10"`
	// WindowFrom/WindowTo bound the reporting period ("2006-01-02");
	// empty disables the bound.
	WindowFrom string `env:"REPORT_WINDOW_FROM"`
	WindowTo   string `env:"REPORT_WINDOW_TO"`
}

type BoundaryConfig struct {
	Path string `env:"STATE_BOUNDARY_FILE, default=data/us_states.geojson"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger zerolog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		panic(err)
	}
	return &cfg
}
