package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eduarena/game"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const EnvPrefix = "EDUARENA"

type Config struct {
	Port           int
	BindAddress    string
	PublicURL      string
	AllowedOrigins []string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel  string
	LogPretty bool

	RoundDuration     time.Duration
	MaxRounds         int
	TickInterval      time.Duration
	FinishedRetention time.Duration
	IdleTimeout       time.Duration
	Difficulty        string
	LetterCount       int

	StateTTL       time.Duration
	PersistTimeout time.Duration
	MessageRate    float64
	MessageBurst   int
}

// RegisterFlags declares every setting on fs with its default.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: EDUARENA_PORT)")
	fs.StringVarP(&c.BindAddress, "bind", "b", "0.0.0.0", "address to bind to (env: EDUARENA_BIND)")
	fs.StringVar(&c.PublicURL, "public-url", "", "base URL encoded into invite QR codes (env: EDUARENA_PUBLIC_URL)")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", []string{"http://localhost:5173"}, "CORS origins (env: EDUARENA_ALLOWED_ORIGINS)")

	fs.StringVar(&c.DBHost, "db-host", "localhost", "postgres host (env: EDUARENA_DB_HOST)")
	fs.IntVar(&c.DBPort, "db-port", 5432, "postgres port (env: EDUARENA_DB_PORT)")
	fs.StringVar(&c.DBUser, "db-user", "eduarena", "postgres user (env: EDUARENA_DB_USER)")
	fs.StringVar(&c.DBPassword, "db-password", "eduarena", "postgres password (env: EDUARENA_DB_PASSWORD)")
	fs.StringVar(&c.DBName, "db-name", "eduarena", "postgres database (env: EDUARENA_DB_NAME)")

	fs.StringVar(&c.RedisHost, "redis-host", "localhost", "redis host, empty disables the state mirror (env: EDUARENA_REDIS_HOST)")
	fs.IntVar(&c.RedisPort, "redis-port", 6379, "redis port (env: EDUARENA_REDIS_PORT)")
	fs.StringVar(&c.RedisPassword, "redis-password", "", "redis password (env: EDUARENA_REDIS_PASSWORD)")
	fs.IntVar(&c.RedisDB, "redis-db", 0, "redis database (env: EDUARENA_REDIS_DB)")

	fs.StringVar(&c.JWTSecret, "jwt-secret", "", "token signing secret (env: EDUARENA_JWT_SECRET)")
	fs.DurationVar(&c.TokenTTL, "token-ttl", 24*time.Hour, "token lifetime (env: EDUARENA_TOKEN_TTL)")

	fs.StringVar(&c.LogLevel, "log-level", "info", "trace, debug, info, warn or error (env: EDUARENA_LOG_LEVEL)")
	fs.BoolVar(&c.LogPretty, "log-pretty", false, "human readable console logs (env: EDUARENA_LOG_PRETTY)")

	fs.DurationVar(&c.RoundDuration, "round-duration", game.DefaultRoundDuration, "length of one round (env: EDUARENA_ROUND_DURATION)")
	fs.IntVar(&c.MaxRounds, "max-rounds", game.DefaultMaxRounds, "rounds per game (env: EDUARENA_MAX_ROUNDS)")
	fs.DurationVar(&c.TickInterval, "tick-interval", game.DefaultTickInterval, "round scheduler cadence (env: EDUARENA_TICK_INTERVAL)")
	fs.DurationVar(&c.FinishedRetention, "finished-retention", 2*time.Minute, "how long finished games stay listed (env: EDUARENA_FINISHED_RETENTION)")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", 30*time.Minute, "time before unstarted games are dropped, 0 keeps them (env: EDUARENA_IDLE_TIMEOUT)")
	fs.StringVar(&c.Difficulty, "difficulty", string(game.DifficultyMedium), "default math difficulty (env: EDUARENA_DIFFICULTY)")
	fs.IntVar(&c.LetterCount, "letter-count", game.DefaultLetterCount, "letters per word round (env: EDUARENA_LETTER_COUNT)")

	fs.DurationVar(&c.StateTTL, "state-ttl", 2*time.Hour, "expiry of mirrored game state in redis (env: EDUARENA_STATE_TTL)")
	fs.DurationVar(&c.PersistTimeout, "persist-timeout", 5*time.Second, "deadline of one background storage write (env: EDUARENA_PERSIST_TIMEOUT)")
	fs.Float64Var(&c.MessageRate, "message-rate", 5, "inbound websocket messages per second per connection (env: EDUARENA_MESSAGE_RATE)")
	fs.IntVar(&c.MessageBurst, "message-burst", 10, "inbound websocket burst per connection (env: EDUARENA_MESSAGE_BURST)")
}

// NewViper returns a viper instance reading EDUARENA_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Bind copies environment overrides into flags the command line left unset.
func Bind(fs *pflag.FlagSet, v *viper.Viper) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			val := v.GetString(f.Name)
			if err := fs.Set(f.Name, val); err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
			}
		}
	})
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("--jwt-secret must be set")
	}
	for name, d := range map[string]time.Duration{
		"round-duration":  c.RoundDuration,
		"tick-interval":   c.TickInterval,
		"token-ttl":       c.TokenTTL,
		"persist-timeout": c.PersistTimeout,
		"state-ttl":       c.StateTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", name, d)
		}
	}
	if c.FinishedRetention < 0 || c.IdleTimeout < 0 {
		return errors.New("--finished-retention and --idle-timeout must not be negative")
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("--max-rounds must be at least 1, got %d", c.MaxRounds)
	}
	if c.LetterCount < 3 {
		return fmt.Errorf("--letter-count must be at least 3, got %d", c.LetterCount)
	}
	if c.MessageRate <= 0 || c.MessageBurst < 1 {
		return errors.New("--message-rate and --message-burst must be positive")
	}
	if _, err := game.ParseDifficulty(c.Difficulty); err != nil {
		return err
	}
	if err := c.GameDefaults().Validate(); err != nil {
		return fmt.Errorf("game defaults: %w", err)
	}
	return nil
}

// GameDefaults is the per-game config new games start from.
func (c *Config) GameDefaults() game.Config {
	d, _ := game.ParseDifficulty(c.Difficulty)
	cfg := game.DefaultConfig()
	cfg.RoundDuration = c.RoundDuration
	cfg.MaxRounds = c.MaxRounds
	cfg.Difficulty = d
	cfg.LetterCount = c.LetterCount
	return cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// InitRedis connects to redis. It returns nil when no host is configured.
func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", client.Options().Addr).Msg("connected to redis")
	return client, nil
}
