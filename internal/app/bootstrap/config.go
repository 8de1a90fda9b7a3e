// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ChannelHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, redis_addr, etc.
//   - Environment variables: CHANNELHUB_MONGO_URI, CHANNELHUB_REDIS_ADDR, etc.
//   - Command-line flags: --mongo_uri, --redis_addr, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "channel_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for event publishing (blank disables events)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},

	{Name: "auth_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Shared secret for verifying bearer tokens (must be strong in production)"},

	{Name: "name_min", Default: 2, Desc: "Minimum channel name length"},
	{Name: "name_max", Default: 32, Desc: "Maximum channel name length"},
	{Name: "description_min", Default: 2, Desc: "Minimum channel description length"},
	{Name: "description_max", Default: 128, Desc: "Maximum channel description length"},

	{Name: "default_results_amount", Default: 20, Desc: "Default page size for list endpoints"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CHANNELHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),

		AuthSecret: appValues.String("auth_secret"),

		NameMin:        appValues.Int("name_min"),
		NameMax:        appValues.Int("name_max"),
		DescriptionMin: appValues.Int("description_min"),
		DescriptionMax: appValues.Int("description_max"),

		DefaultResultsAmount: appValues.Int("default_results_amount"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// ChannelHub validates the MongoDB URI format and the field-length bounds
// to catch configuration errors before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.AuthSecret == "" {
		return fmt.Errorf("auth_secret must not be empty")
	}
	if appCfg.NameMin < 1 || appCfg.NameMin > appCfg.NameMax {
		return fmt.Errorf("name bounds are inconsistent: min=%d max=%d", appCfg.NameMin, appCfg.NameMax)
	}
	if appCfg.DescriptionMin < 1 || appCfg.DescriptionMin > appCfg.DescriptionMax {
		return fmt.Errorf("description bounds are inconsistent: min=%d max=%d", appCfg.DescriptionMin, appCfg.DescriptionMax)
	}
	if appCfg.DefaultResultsAmount < 1 {
		return fmt.Errorf("default_results_amount must be positive")
	}

	return nil
}
