package config

import (
	"fmt"
	"strings"
	"time"

	sharedauth "github.com/fd-kn/daily-prompts-sub000/pkg/auth"
	"github.com/fd-kn/daily-prompts-sub000/pkg/envconfig"
)

// Config encapsulates the runtime configuration for the writing service.
type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string
	DataStore    DataStore
	GateStore    GateStore
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Redis        RedisConfig
	Prompts      PromptConfig
	Stories      StoryConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps stories and rewards in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores everything in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// GateStore selects where the daily reward gate lives.
type GateStore string

const (
	GateStoreMemory    GateStore = "memory"
	GateStoreFirestore GateStore = "firestore"
	GateStoreRedis     GateStore = "redis"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode           sharedauth.Mode
	JWKSURL        string
	Audience       string
	Issuer         string
	AllowAnonymous bool
	AdminUserIDs   []string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string
	EmulatorHost string
}

// RedisConfig points at the gate's Redis instance.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0,lte=15"`
}

// PromptConfig controls daily selection.
type PromptConfig struct {
	TimezoneName string
	Location     *time.Location
}

// StoryConfig bounds story length.
type StoryConfig struct {
	MinWords int `validate:"gte=0"`
	MaxWords int `validate:"gtefield=MinWords"`
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		Auth: AuthConfig{
			Mode:           sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNoop)))),
			JWKSURL:        envconfig.Get("CLERK_JWKS_URL", ""),
			Audience:       envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:         envconfig.Get("CLERK_ISSUER", ""),
			AllowAnonymous: envconfig.GetBool("AUTH_ALLOW_ANONYMOUS", true),
			AdminUserIDs:   envconfig.GetList("ADMIN_USER_IDS"),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Redis: RedisConfig{
			Addr:     envconfig.Get("REDIS_ADDR", ""),
			Password: envconfig.Get("REDIS_PASSWORD", ""),
			DB:       envconfig.GetInt("REDIS_DB", 0),
		},
		Prompts: PromptConfig{
			TimezoneName: envconfig.Get("PROMPT_TIMEZONE", "UTC"),
		},
		Stories: StoryConfig{
			MinWords: envconfig.GetInt("STORY_MIN_WORDS", 50),
			MaxWords: envconfig.GetInt("STORY_MAX_WORDS", 5000),
		},
	}
	// The gate follows the datastore unless pinned explicitly.
	cfg.GateStore = GateStore(strings.ToLower(envconfig.Get("GATE_STORE", string(cfg.DataStore))))

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port must be specified")
	}
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	switch cfg.GateStore {
	case GateStoreMemory:
		// no-op
	case GateStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when gate store=firestore")
		}
	case GateStoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when GATE_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported gate store: %s", cfg.GateStore)
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	loc, err := time.LoadLocation(cfg.Prompts.TimezoneName)
	if err != nil {
		return fmt.Errorf("invalid PROMPT_TIMEZONE %q: %w", cfg.Prompts.TimezoneName, err)
	}
	cfg.Prompts.Location = loc

	return nil
}
