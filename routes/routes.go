package routes

import (
	"context"
	"net/http"

	"eduarena/handlers"
	"eduarena/middleware"
	"eduarena/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type ConnectionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (services.Identity, error)
}

type Handlers struct {
	Auth  *handlers.AuthHandler
	Game  *handlers.GameHandler
	Stats *handlers.StatsHandler
}

// SetupRoutes registers the REST API, the realtime endpoint and the health
// check. Origins restricts both CORS and the websocket handshake; empty
// allows all.
func SetupRoutes(
	router *gin.Engine,
	h Handlers,
	hub *services.Hub,
	auth ConnectionAuthenticator,
	verifier middleware.TokenVerifier,
	origins []string,
) {
	router.Use(middleware.CORS(origins))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.GET("/profile", middleware.AuthMiddleware(verifier), h.Auth.GetProfile)
		}

		games := api.Group("/games")
		{
			games.GET("", h.Game.ListGames)
			games.GET("/options", h.Game.GetOptions)
			games.GET("/:id", h.Game.GetGame)
			games.GET("/:id/qr", h.Game.GetGameQR)
		}

		api.GET("/leaderboard", h.Stats.GetLeaderboard)

		history := api.Group("/history")
		{
			history.GET("", h.Stats.GetHistory)
			history.GET("/user/:userId", h.Stats.GetUserHistory)
			history.GET("/type/:type", h.Stats.GetTypeHistory)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(verifier))
		{
			protected.GET("/messages", h.Stats.GetMessages)
		}
	}

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin(origins)}

	// The browser websocket API cannot set headers, so the token travels in
	// the query string.
	router.GET("/ws", func(c *gin.Context) {
		identity, err := auth.Authenticate(c.Request.Context(), c.Query("token"))
		if err != nil {
			log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("websocket authentication failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("websocket upgrade failed")
			return
		}

		hub.RegisterClient(conn, identity)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
