package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/api"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the handlers the router composes. Auth endpoints are open; the
// ticket/AI/profile/technician surface sits behind the session middleware.
type Deps struct {
	SessionSecret string
	SecureCookies bool

	Auth        *handler.AuthHandler
	Profile     *handler.ProfileHandler
	Ticket      *handler.TicketHandler
	AI          *handler.AIHandler
	Technician  *handler.TechnicianHandler
	Article     *handler.ArticleHandler
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(auth.SessionMiddleware(d.SessionSecret, d.SecureCookies))

	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/") })
	r.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = "/swagger/index.html"
			c.Request.RequestURI = "/swagger/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/register", d.Auth.Register)
		apiGroup.POST("/login", d.Auth.Login)
		apiGroup.POST("/logout", d.Auth.Logout)

		apiGroup.GET("/articles", d.Article.List)
	}

	authed := r.Group("/api", auth.RequireUser)
	{
		authed.GET("/user", d.Auth.CurrentUser)

		authed.GET("/profile", d.Profile.Get)
		authed.PATCH("/profile", d.Profile.Update)

		authed.GET("/tickets", d.Ticket.List)
		authed.POST("/tickets", d.Ticket.Create)
		authed.GET("/tickets/:id", d.Ticket.Get)
		authed.PATCH("/tickets/:id", d.Ticket.Update)
		authed.POST("/tickets/:id/messages", d.Ticket.CreateMessage)

		authed.POST("/ai/suggest", d.AI.Suggest)
		authed.POST("/ai/analyze-ticket", d.AI.Analyze)

		authed.GET("/technicians", d.Technician.List)
		authed.POST("/technicians", d.Technician.Create)
		authed.DELETE("/technicians/:id", d.Technician.Delete)

		authed.POST("/articles", d.Article.Create)
	}

	return r
}
