// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/clubhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/clubhub/internal/app/features/authgoogle"
	chatfeature "github.com/dalemusser/clubhub/internal/app/features/chat"
	clubsfeature "github.com/dalemusser/clubhub/internal/app/features/clubs"
	csrffeature "github.com/dalemusser/clubhub/internal/app/features/csrftoken"
	errorsfeature "github.com/dalemusser/clubhub/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/clubhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	joinrequestsfeature "github.com/dalemusser/clubhub/internal/app/features/joinrequests"
	loginfeature "github.com/dalemusser/clubhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/clubhub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/clubhub/internal/app/features/members"
	profilefeature "github.com/dalemusser/clubhub/internal/app/features/profile"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/chatfeed"
	"github.com/dalemusser/clubhub/internal/app/system/chatview"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/reqlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. ClubHub applies request logging and
// session middleware, then mounts the auth, profile, club, chat,
// membership, event and audit routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	errLog := errorsfeature.NewErrorLogger(logger)
	audit := newAuditLogger(db, appCfg, logger)
	resolver := clubpolicy.NewResolver(clubpolicy.NewMongoLookup(db), logger)

	// Chat: one message store serves as the feed's source and the writer.
	msgs := messagestore.New(db)
	feed := chatfeed.New(msgs, logger, chatfeed.Options{
		Limit: appCfg.ChatHistoryLimit,
		Poll:  appCfg.ChatPoll,
	})
	views := chatview.NewController(resolver, feed, msgs, logger)

	loginLimiter := ratelimit.NewLoginLimiter()
	onShutdown(loginLimiter.Stop)
	postLimiter := ratelimit.New(appCfg.ChatPostLimit, appCfg.ChatPostWindow)
	onShutdown(postLimiter.Stop)

	csrfHandler := csrffeature.NewHandler(appCfg.SessionKey, secure, logger)

	r := chi.NewRouter()

	r.Use(reqlog.Middleware(logger))
	// State-changing requests carry the token from GET /csrf.
	r.Use(csrfHandler.Protect)
	// Loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Mount("/csrf", csrffeature.Routes(csrfHandler))

	// Authentication
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, audit, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, audit, loginLimiter, googleHandler.IsConfigured(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Error responses
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Clubs and everything scoped to one club
	clubsRouter := clubsfeature.Routes(clubsfeature.NewHandler(db, resolver, errLog, audit, logger), sessionMgr)

	chatHandler := chatfeature.NewHandler(views, errLog, audit, postLimiter, logger)
	clubsRouter.Mount("/{id}/chat", chatfeature.Routes(chatHandler, sessionMgr))

	joinHandler := joinrequestsfeature.NewHandler(db, resolver, errLog, audit, logger)
	clubsRouter.Mount("/{id}/join", joinrequestsfeature.JoinRoutes(joinHandler, sessionMgr))
	clubsRouter.Mount("/{id}/requests", joinrequestsfeature.Routes(joinHandler, sessionMgr))

	membersHandler := membersfeature.NewHandler(db, resolver, errLog, audit, logger)
	clubsRouter.Mount("/{id}/members", membersfeature.Routes(membersHandler, sessionMgr))

	eventsHandler := eventsfeature.NewHandler(db, resolver, errLog, audit, logger)
	clubsRouter.Mount("/{id}/events", eventsfeature.Routes(eventsHandler, sessionMgr))
	clubsRouter.Mount("/{id}/proposals", eventsfeature.ProposalRoutes(eventsHandler, sessionMgr))

	r.Mount("/clubs", clubsRouter)

	// Admin-wide views
	r.Mount("/proposals", eventsfeature.QueueRoutes(eventsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	logger.Info("routes built",
		zap.Bool("google_oauth", googleHandler.IsConfigured()),
		zap.Int("chat_history_limit", appCfg.ChatHistoryLimit),
		zap.Duration("chat_poll", appCfg.ChatPoll),
		zap.Duration("session_max_age", appCfg.SessionMaxAge.Round(time.Second)))

	return r, nil
}
