package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/controllers"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/middleware"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/oauth"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Social OAuth. UserContextMiddleware skips /auth/* so Goth keeps
	// control over its own session handling.
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleOAuthLogout)

	// Account activation link from the signup mail
	app.Get("/verify", controllers.HandleVerifyAccount)
}
