// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	channelsfeature "github.com/bluestream/channelhub/internal/app/features/channels"
	healthfeature "github.com/bluestream/channelhub/internal/app/features/health"
	permissionsfeature "github.com/bluestream/channelhub/internal/app/features/permissions"
	rpcfeature "github.com/bluestream/channelhub/internal/app/features/rpc"
	"github.com/bluestream/channelhub/internal/app/policy/channelpolicy"
	"github.com/bluestream/channelhub/internal/app/policy/permissionpolicy"
	channelstore "github.com/bluestream/channelhub/internal/app/store/channels"
	permissionstore "github.com/bluestream/channelhub/internal/app/store/permissions"
	"github.com/bluestream/channelhub/internal/app/system/auth"
	"github.com/bluestream/channelhub/internal/app/system/broker"
	"github.com/bluestream/channelhub/internal/app/system/validators"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Stores are wired into the two policy
// services here; the permission policy doubles as the channel policy's
// admin predicate.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	channels := channelstore.New(deps.MongoDatabase)
	grants := permissionstore.New(deps.MongoDatabase)

	var events broker.Publisher = broker.Nop{}
	if deps.Redis != nil {
		events = broker.NewRedisPublisher(deps.Redis, logger)
	}

	permSvc := permissionpolicy.New(grants, channels)
	chanSvc := channelpolicy.New(channels, grants, permSvc, events, logger)

	bounds := validators.Bounds{
		NameMin:        appCfg.NameMin,
		NameMax:        appCfg.NameMax,
		DescriptionMin: appCfg.DescriptionMin,
		DescriptionMax: appCfg.DescriptionMax,
	}

	verifier := auth.NewVerifier(appCfg.AuthSecret, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the token's user into context so handlers
	// can read it via auth.CurrentUser(r).
	r.Use(verifier.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		channelsHandler := channelsfeature.NewHandler(chanSvc, bounds, appCfg.DefaultResultsAmount, logger)
		api.Mount("/channel", channelsfeature.Routes(channelsHandler))

		permissionsHandler := permissionsfeature.NewHandler(permSvc, appCfg.DefaultResultsAmount, logger)
		api.Mount("/userPermissions", permissionsfeature.Routes(permissionsHandler))
	})

	// Service-to-service surface. Deployments keep this off the public
	// ingress; it carries no end-user authorization.
	rpcHandler := rpcfeature.NewHandler(chanSvc, bounds, logger)
	r.Mount("/rpc", rpcfeature.Routes(rpcHandler))

	return r, nil
}
