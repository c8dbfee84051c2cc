// Package app wires the control plane's domain packages into the HTTP
// server: construct infrastructure clients, build each component's
// Repo/Service/Handler chain, and mount the route tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"golang.org/x/oauth2"

	"github.com/radixpos/controlplane/internal/audit"
	"github.com/radixpos/controlplane/internal/auth"
	"github.com/radixpos/controlplane/internal/config"
	"github.com/radixpos/controlplane/internal/httpserver"
	"github.com/radixpos/controlplane/internal/platform"
	"github.com/radixpos/controlplane/internal/telemetry"
	"github.com/radixpos/controlplane/pkg/claim"
	"github.com/radixpos/controlplane/pkg/cloudaccount"
	"github.com/radixpos/controlplane/pkg/command"
	"github.com/radixpos/controlplane/pkg/impersonation"
	"github.com/radixpos/controlplane/pkg/network"
	"github.com/radixpos/controlplane/pkg/node"
	"github.com/radixpos/controlplane/pkg/notify"
	"github.com/radixpos/controlplane/pkg/remoteaction"
	"github.com/radixpos/controlplane/pkg/reseller"
	"github.com/radixpos/controlplane/pkg/revision"
	"github.com/radixpos/controlplane/pkg/store"
	"github.com/radixpos/controlplane/pkg/tenant"
)

// Run is the process entry point: load infrastructure, build the HTTP
// server, and serve until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting controlplane", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	// --- Session auth ---

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret = auth.GenerateDevSecret()
		logger.Info("session: using auto-generated dev secret (set CONTROLPLANE_SESSION_SECRET in production)")
	}
	sessionMaxAge, err := time.ParseDuration(cfg.SessionMaxAge)
	if err != nil {
		return fmt.Errorf("parsing session max age %q: %w", cfg.SessionMaxAge, err)
	}
	sessionMgr, err := auth.NewSessionManager(sessionSecret, sessionMaxAge)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	var oidcAuth *auth.OIDCAuthenticator
	if cfg.OIDCIssuerURL != "" && cfg.OIDCClientID != "" {
		oidcAuth, err = auth.NewOIDCAuthenticator(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID)
		if err != nil {
			return fmt.Errorf("initializing OIDC authenticator: %w", err)
		}
		logger.Info("OIDC authentication enabled", "issuer", cfg.OIDCIssuerURL)
	} else {
		logger.Info("OIDC authentication disabled (OIDC_ISSUER_URL not set)")
	}

	loginRateWindow, err := time.ParseDuration(cfg.LoginRateLimitWindow)
	if err != nil {
		return fmt.Errorf("parsing login rate limit window %q: %w", cfg.LoginRateLimitWindow, err)
	}
	rateLimiter := auth.NewRateLimiter(rdb, cfg.LoginRateLimitMaxAttempts, loginRateWindow)

	bootstrapTokenTTL, err := time.ParseDuration(cfg.BootstrapTokenTTL)
	if err != nil {
		return fmt.Errorf("parsing bootstrap token ttl %q: %w", cfg.BootstrapTokenTTL, err)
	}

	impersonationKey := cfg.ImpersonationSigningKey
	if impersonationKey == "" {
		impersonationKey = sessionSecret
	}

	// --- Repos ---

	resellerRepo := reseller.NewRepo(db)
	tenantRepo := tenant.NewRepo(db)
	storeRepo := store.NewRepo(db)
	accountRepo := cloudaccount.NewRepo(db)
	nodeRepo := node.NewRepo(db)
	commandRepo := command.NewRepo(db)
	revisionRepo := revision.NewRepo(db)
	auditRepo := audit.NewRepo(db)

	// --- Services ---

	nodeSvc := node.NewService(db, logger)
	revisionSvc := revision.NewService(db, nodeRepo, logger)
	commandSvc := command.NewService(db, logger)
	remoteActionSvc := remoteaction.NewService(commandRepo, commandSvc, nodeRepo, logger)
	claimSvc := claim.NewService(db, claim.NewClient(), logger)
	impersonationSvc := impersonation.NewService([]byte(impersonationKey), cfg.DefaultTargetBaseURL)

	notifier := notify.NewNotifier(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	networkSvc := network.NewService(storeRepo, nodeRepo, notifier)

	// --- Audit writer ---
	//
	// Built before the handlers below so every mutating operator handler can
	// enqueue a best-effort entry via auditWriter.LogFromRequest.

	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	// --- Handlers ---

	loginHandler := cloudaccount.NewLoginHandler(accountRepo, sessionMgr, rateLimiter, logger)
	accountHandler := cloudaccount.NewHandler(accountRepo, resellerRepo, tenantRepo, auditWriter, logger)
	resellerHandler := reseller.NewHandler(resellerRepo, auditWriter, logger)
	tenantHandler := tenant.NewHandler(tenantRepo, auditWriter, logger)
	storeHandler := store.NewHandler(storeRepo, tenantRepo, auditWriter, logger)
	revisionHandler := revision.NewHandler(revisionRepo, revisionSvc, auditWriter, logger)
	commandHandler := command.NewHandler(commandRepo, commandSvc, auditWriter, logger)
	nodeHandler := node.NewHandler(nodeRepo, nodeSvc, bootstrapTokenTTL, auditWriter, logger)
	networkHandler := network.NewHandler(networkSvc, logger)
	remoteActionHandler := remoteaction.NewHandler(commandRepo, remoteActionSvc, auditWriter, logger)
	claimHandler := claim.NewHandler(claimSvc, tenantRepo, storeRepo, auditWriter, logger)
	impersonationHandler := impersonation.NewHandler(impersonationSvc, storeRepo, tenantRepo, auditWriter, logger)
	auditHandler := audit.NewHandler(auditRepo, logger)

	// --- HTTP server ---

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)

	sessionAuth := auth.SessionAuth(sessionMgr, oidcAuth, accountRepo)
	nodeAuth := auth.NodeAuth(nodeRepo)

	// Operator authentication. Routes are registered with full literal
	// paths via Group (an inline middleware scope sharing the root
	// router's tree) rather than Route/Mount, so a wildcard subrouter never
	// shadows a more specific sibling path.
	srv.Router.Post("/cloud/auth/login", loginHandler.HandleLogin)
	srv.Router.Group(func(r chi.Router) {
		r.Use(sessionAuth)
		r.Get("/cloud/auth/me", loginHandler.HandleMe)
	})

	if oidcAuth != nil && cfg.OIDCClientSecret != "" {
		oauth2Cfg := &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OIDCIssuerURL + "/authorize",
				TokenURL: cfg.OIDCIssuerURL + "/oauth/token",
			},
		}
		oidcFlow := auth.NewOIDCFlowHandler(oauth2Cfg, oidcAuth, sessionMgr, accountRepo, rdb, logger)
		srv.Router.Get("/cloud/auth/oidc/login", oidcFlow.HandleLogin)
		srv.Router.Get("/cloud/auth/oidc/callback", oidcFlow.HandleCallback)
		logger.Info("OIDC Authorization Code flow enabled", "redirect_url", cfg.OIDCRedirectURL)
	}

	// --- Operator surface (session auth required) ---

	srv.Router.Group(func(r chi.Router) {
		r.Use(sessionAuth)

		// Hierarchy: resellers, tenants, stores, accounts. Reseller
		// creation and platform-wide tenant creation are OWNER-only
		// (RESELLER/TENANT_ADMIN have no reseller-level scope); nested
		// creation and listing endpoints are scoped by the handler's own
		// predicate.
		r.With(auth.RequireAccountType(auth.TypeOwner)).Get("/cloud/platform/resellers", resellerHandler.List)
		r.With(auth.RequireAccountType(auth.TypeOwner)).Post("/cloud/platform/resellers", resellerHandler.Create)
		r.With(auth.RequireAccountType(auth.TypeOwner)).Post("/cloud/platform/resellers/{id}/accounts", accountHandler.CreateUnderReseller)
		r.With(auth.RequireAccountType(auth.TypeOwner)).Post("/cloud/platform/resellers/{id}/tenants", tenantHandler.CreateUnderReseller)

		r.Get("/cloud/platform/tenants", tenantHandler.List)
		r.With(auth.RequireAccountType(auth.TypeOwner)).Post("/cloud/platform/tenants", tenantHandler.Create)
		r.Post("/cloud/platform/tenants/{id}/accounts", accountHandler.CreateUnderTenant)

		r.Get("/cloud/platform/stores", storeHandler.List)
		r.Post("/cloud/platform/stores", storeHandler.Create)
		r.Post("/cloud/platform/stores/{id}/bootstrap-tokens", nodeHandler.CreateBootstrapToken)
		r.Post("/cloud/platform/stores/{id}/impersonation-link", impersonationHandler.Mint)

		// Network view and remote actions.
		r.Get("/cloud/platform/network", networkHandler.Summary)
		r.Post("/cloud/platform/network/nodes/{id}/rotate-token", nodeHandler.RotateToken)
		r.Post("/cloud/platform/network/actions", remoteActionHandler.Dispatch)
		r.Get("/cloud/platform/network/actions", remoteActionHandler.ListForStore)
		r.Post("/cloud/platform/network/actions/{id}/retry", remoteActionHandler.Retry)
		r.Post("/cloud/platform/network/actions/{id}/cancel", remoteActionHandler.Cancel)

		// Onsite claim handshake.
		r.Post("/cloud/platform/onsite/claim", claimHandler.Claim)

		// Operator action audit log (OWNER only).
		r.With(auth.RequireAccountType(auth.TypeOwner)).Get("/cloud/platform/audit-log", auditHandler.List)

		// Revisions & commands.
		r.Post("/cloud/stores/{id}/revisions", revisionHandler.Publish)
		r.Get("/cloud/stores/{id}/revisions/latest", revisionHandler.LatestForStore)
		r.Get("/cloud/stores/{id}/commands", commandHandler.ListForStore)
		r.Post("/cloud/commands/{id}/retry", commandHandler.Retry)
		r.Get("/cloud/commands/{id}/logs", commandHandler.Logs)
	})

	// --- Edge node surface (node header auth required) ---

	srv.Router.Post("/cloud/nodes/register", nodeHandler.Register)
	srv.Router.Group(func(r chi.Router) {
		r.Use(nodeAuth)
		r.Get("/cloud/nodes/{nodeId}/commands", commandHandler.ListForNode)
		r.Post("/cloud/nodes/{nodeId}/heartbeat", nodeHandler.Heartbeat)
		r.Post("/cloud/commands/{id}/ack", commandHandler.Ack)
	})

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
