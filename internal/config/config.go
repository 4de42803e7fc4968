package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr string `envconfig:"ADDR" default:":8083"`
	// Empty DATA_DIR runs badger in memory, which is what the tests and
	// local development use.
	DataDir      string        `envconfig:"DATA_DIR"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	AMQPURL      string        `envconfig:"AMQP_URL"`
	AMQPExchange string        `envconfig:"AMQP_EXCHANGE" default:"community.events"`
	// DEBUG_ROUTES exposes the connection audit endpoint
	DebugRoutes bool `envconfig:"DEBUG_ROUTES" default:"false"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
