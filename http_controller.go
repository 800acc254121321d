package authkit

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the paths the controller registers.
type AuthControllerRoutes struct {
	Session  string
	SignIn   string
	SignUp   string
	Callback string
	SignOut  string
}

// AuthController serves the session endpoint and the redirect based sign-in,
// sign-up, callback, and sign-out flows. All protocol handshakes happen on
// provider hosted pages; this controller only builds URLs and moves cookies.
type AuthController struct {
	Debug           bool
	Logger          Logger
	Sessions        SessionManager
	Identity        IdentityClient
	Routes          *AuthControllerRoutes
	SuccessRedirect string
	ErrorRedirect   string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithSessionManager(sessions SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithIdentityClient(identity IdentityClient) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Identity = identity
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func WithSuccessRedirect(path string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if path != "" {
			c.SuccessRedirect = path
		}
		return c
	}
}

func WithErrorRedirect(path string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if path != "" {
			c.ErrorRedirect = path
		}
		return c
	}
}

// WithConfig applies the shared application configuration to the controller.
func WithConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		cfg = cfg.withDefaults()
		c.SuccessRedirect = cfg.SuccessRedirect
		c.ErrorRedirect = cfg.ErrorRedirect
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Session:  "/auth/session",
			SignIn:   "/auth/sign-in",
			SignUp:   "/auth/sign-up",
			Callback: "/auth/callback",
			SignOut:  "/auth/sign-out",
		},
		SuccessRedirect: "/",
		ErrorRedirect:   "/?error=auth_failed",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	if c.Identity == nil {
		panic("Missing IdentityClient in auth controller...")
	}

	return c
}

// RegisterAuthRoutes wires the auth endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Session, controller.SessionShow).
		SetName("auth.session")

	app.Get(controller.Routes.SignIn, controller.SignIn).
		SetName("auth.sign-in")

	app.Get(controller.Routes.SignUp, controller.SignUp).
		SetName("auth.sign-up")

	app.Get(controller.Routes.Callback, controller.Callback).
		SetName("auth.callback")

	app.Get(controller.Routes.SignOut, controller.SignOut).
		SetName("auth.sign-out")
}

// SessionShow returns {user, access_token} for the current request's cookie,
// applying the refresh logic transparently. Every failure path resolves to
// the logged out payload; none of them surface as HTTP errors.
func (a *AuthController) SessionShow(ctx router.Context) error {
	record, err := a.Sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionDecode) {
			// The cookie is garbage; remove it so we stop paying the decode
			// cost on every request.
			a.Sessions.ClearSession(ctx)
		}
		return ctx.JSON(router.StatusOK, PayloadFromRecord(nil))
	}

	return ctx.JSON(router.StatusOK, PayloadFromRecord(record))
}

// SignIn redirects the browser to the provider hosted authorization URL.
func (a *AuthController) SignIn(ctx router.Context) error {
	return a.authorizationRedirect(ctx, "")
}

// SignUp is SignIn with the provider's registration screen preselected.
func (a *AuthController) SignUp(ctx router.Context) error {
	return a.authorizationRedirect(ctx, "sign-up")
}

func (a *AuthController) authorizationRedirect(ctx router.Context, screenHint string) error {
	url, err := a.Identity.AuthorizationURL(AuthorizationURLOptions{
		ScreenHint:     screenHint,
		OrganizationID: ctx.Query("organization_id", ""),
		LoginHint:      ctx.Query("login_hint", ""),
	})
	if err != nil {
		a.Logger.Error("failed to build authorization URL", "error", err)
		return ctx.Redirect(a.ErrorRedirect, fiber.StatusSeeOther)
	}

	return ctx.Redirect(url, fiber.StatusFound)
}

// CallbackRequest is the authorization response payload.
type CallbackRequest struct {
	Code string `query:"code" json:"code"`
}

// Validate will run validation rules
func (r CallbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Code,
			validation.Required,
		),
	)
}

// Callback exchanges the authorization code for tokens, persists the sealed
// session, and sends the browser back to the application.
func (a *AuthController) Callback(ctx router.Context) error {
	payload := CallbackRequest{Code: ctx.Query("code", "")}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "missing code parameter",
		})
	}

	auth, err := a.Identity.AuthenticateWithCode(ctx.Context(), payload.Code)
	if err != nil {
		a.Logger.Error("authorization code exchange failed", "error", err)
		return ctx.Redirect(a.ErrorRedirect, fiber.StatusSeeOther)
	}

	expiresAt, err := AccessTokenExpiry(auth.AccessToken)
	if err != nil {
		a.Logger.Error("access token has no usable expiry", "error", err)
		return ctx.Redirect(a.ErrorRedirect, fiber.StatusSeeOther)
	}

	record := &SessionRecord{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		User:         auth.User,
		ExpiresAt:    expiresAt,
	}

	if a.Debug {
		a.Logger.Debug("callback session %s", print.MaybePrettyJSON(record.User))
	}

	if err := a.Sessions.SetSession(ctx, record); err != nil {
		a.Logger.Error("failed to persist session", "error", err)
		return ctx.Redirect(a.ErrorRedirect, fiber.StatusSeeOther)
	}

	return ctx.Redirect(a.SuccessRedirect, fiber.StatusFound)
}

// SignOut clears the session cookie and redirects.
func (a *AuthController) SignOut(ctx router.Context) error {
	a.Sessions.ClearSession(ctx)
	return ctx.Redirect(a.SuccessRedirect, fiber.StatusFound)
}
