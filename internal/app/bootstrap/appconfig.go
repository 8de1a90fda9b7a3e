// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, timeouts); AppConfig is everything specific to this service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis, used only as the pub/sub sink for domain events.
	// Blank address disables event publishing.
	RedisAddr     string
	RedisPassword string

	// AuthSecret verifies bearer tokens minted by the authenticator service.
	AuthSecret string

	// Field length limits, shared with the other platform services.
	NameMin        int
	NameMax        int
	DescriptionMin int
	DescriptionMax int

	// DefaultResultsAmount is the page size when a request gives no endIndex.
	DefaultResultsAmount int
}
