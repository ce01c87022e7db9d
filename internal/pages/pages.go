// Package pages renders the HTML shells for browser navigation. Every page
// is served behind middleware.GuardPages, so a handler here only runs once
// the routing decision allowed the request.
package pages

import (
	"net/http"
	"strings"

	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/JAFletch-surg/dukes-club/internal/session"
	"github.com/gin-gonic/gin"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const siteName = "Dukes' Club"

type navItem struct {
	Label string
	Href  string
	Show  func(session.Flags, bool) bool
}

var navItems = []navItem{
	{Label: "Events", Href: "/events", Show: always},
	{Label: "Fellowships", Href: "/fellowships", Show: always},
	{Label: "Members", Href: policy.PathMembers, Show: func(_ session.Flags, signedIn bool) bool { return signedIn }},
	{Label: "Admin", Href: policy.PathAdmin, Show: func(f session.Flags, _ bool) bool { return f.IsEditor }},
	{Label: "Sign in", Href: policy.PathLogin, Show: func(_ session.Flags, signedIn bool) bool { return !signedIn }},
	{Label: "Join", Href: policy.PathRegister, Show: func(_ session.Flags, signedIn bool) bool { return !signedIn }},
}

func always(session.Flags, bool) bool { return true }

// Handler serves the page routes.
type Handler struct{}

// NewHandler creates a page Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Mount registers every page on r. The caller installs the guard.
func (p *Handler) Mount(r gin.IRoutes) {
	r.GET("/", p.Home)
	r.GET("/events", p.Public("Events", "events"))
	r.GET("/events/:slug", p.Public("Event", "event"))
	r.GET("/fellowships", p.Public("Fellowships", "fellowships"))
	r.GET(policy.PathLogin, p.Login)
	r.GET(policy.PathRegister, p.Register)
	r.GET(policy.PathForgotPassword, p.ForgotPassword)
	r.GET(service.ResetPasswordPath, p.ResetPassword)
	r.GET(policy.PathPendingApproval, p.PendingApproval)
	r.GET(policy.PathMembers, p.Members)
	r.GET(policy.PathMembers+"/*section", p.Members)
	r.GET(policy.PathAdmin, p.Admin)
	r.GET(policy.PathAdmin+"/*section", p.Admin)
}

func render(c *gin.Context, status int, node g.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	_ = node.Render(c.Writer)
}

func shell(c *gin.Context, title string, body ...g.Node) g.Node {
	s := middleware.CurrentSession(c)
	flags := s.Flags()
	signedIn := s.Authenticated()

	nav := make([]g.Node, 0, len(navItems))
	for _, item := range navItems {
		if item.Show(flags, signedIn) {
			nav = append(nav, h.A(h.Href(item.Href), g.Text(item.Label)))
		}
	}

	return h.HTML(
		h.Lang("en-GB"),
		h.Head(
			h.Meta(h.Charset("utf-8")),
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
			h.TitleEl(g.Text(title+" | "+siteName)),
			h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
			h.Script(h.Type("module"), h.Src("/static/app.js")),
		),
		h.Body(
			h.Header(h.Class("topbar"),
				h.A(h.Href("/"), h.Strong(g.Text(siteName))),
				h.Nav(g.Group(nav)),
			),
			h.Main(g.Group(body)),
		),
	)
}

// app is the mount point the client application hydrates.
func app(area, section string) g.Node {
	return h.Div(h.ID("app"), h.DataAttr("area", area), g.If(section != "", h.DataAttr("section", section)))
}

func notice(kind, text string) g.Node {
	return h.P(h.Class("notice notice-"+kind), h.Role("status"), g.Text(text))
}

// Home is the public landing page.
func (p *Handler) Home(c *gin.Context) {
	render(c, http.StatusOK, shell(c, "Home",
		h.H1(g.Text(siteName)),
		h.P(g.Text("The UK colorectal surgical trainees' society.")),
		app("public", "home"),
	))
}

// Public returns a handler for a public catalog page.
func (p *Handler) Public(title, section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, shell(c, title, h.H1(g.Text(title)), app("public", section)))
	}
}

// Login renders the sign-in form. The redirect query parameter is carried
// into the form only when it is a local path.
func (p *Handler) Login(c *gin.Context) {
	var notices []g.Node
	switch c.Query("verified") {
	case "true":
		notices = append(notices, notice("success", "Your email has been verified. Please sign in."))
	case "false":
		notices = append(notices, notice("error", "That verification link is invalid or has expired."))
	}

	render(c, http.StatusOK, shell(c, "Sign in",
		h.H1(g.Text("Sign in")),
		g.Group(notices),
		h.Form(h.ID("login-form"), h.Method("post"), h.Action("/api/v1/auth/login"),
			h.Input(h.Type("hidden"), h.Name("redirect"), h.Value(policy.LocalPath(c.Query("redirect")))),
			field("Email", "email", "email", "username"),
			field("Password", "password", "password", "current-password"),
			h.Button(h.Type("submit"), g.Text("Sign in")),
		),
		h.P(h.A(h.Href(policy.PathForgotPassword), g.Text("Forgot your password?"))),
		h.P(g.Text("New here? "), h.A(h.Href(policy.PathRegister), g.Text("Create an account"))),
	))
}

// Register renders the registration form.
func (p *Handler) Register(c *gin.Context) {
	render(c, http.StatusOK, shell(c, "Join",
		h.H1(g.Text("Join "+siteName)),
		h.P(h.ID("approval-hint"), h.Class("hint"),
			g.Text("NHS and UK academic email addresses are approved automatically.")),
		h.Form(h.ID("register-form"), h.Method("post"), h.Action("/api/v1/auth/register"),
			field("Full name", "full_name", "text", "name"),
			field("Email", "email", "email", "email"),
			selectField("Training stage", "training_stage", models.TrainingStages),
			selectField("Deanery/region", "region", models.Regions),
			field("ACPGBI number (optional)", "acpgbi_number", "text", "off"),
			field("Password", "password", "password", "new-password"),
			field("Confirm password", "confirm_password", "password", "new-password"),
			h.Button(h.Type("submit"), g.Text("Create account")),
		),
	))
}

// ForgotPassword renders the reset request form.
func (p *Handler) ForgotPassword(c *gin.Context) {
	render(c, http.StatusOK, shell(c, "Reset password",
		h.H1(g.Text("Reset your password")),
		h.Form(h.ID("forgot-form"), h.Method("post"), h.Action("/api/v1/auth/forgot-password"),
			field("Email", "email", "email", "email"),
			h.Button(h.Type("submit"), g.Text("Send reset link")),
		),
	))
}

// ResetPassword renders the form that completes a reset from an emailed token.
func (p *Handler) ResetPassword(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		render(c, http.StatusOK, shell(c, "Reset password",
			h.H1(g.Text("Reset your password")),
			notice("error", "This link is invalid or has expired."),
			h.P(h.A(h.Href(policy.PathForgotPassword), g.Text("Request a new link"))),
		))
		return
	}
	render(c, http.StatusOK, shell(c, "Reset password",
		h.H1(g.Text("Choose a new password")),
		h.Form(h.ID("reset-form"), h.Method("post"), h.Action("/api/v1/auth/reset-password"),
			h.Input(h.Type("hidden"), h.Name("token"), h.Value(token)),
			field("New password", "password", "password", "new-password"),
			field("Confirm password", "confirm_password", "password", "new-password"),
			h.Button(h.Type("submit"), g.Text("Update password")),
		),
	))
}

// PendingApproval tells a signed-in but unapproved member to wait.
func (p *Handler) PendingApproval(c *gin.Context) {
	render(c, http.StatusOK, shell(c, "Awaiting approval",
		h.H1(g.Text("Your account is awaiting approval")),
		h.P(g.Text("An administrator will review your registration shortly. You will be able to access members content once approved.")),
	))
}

// Members renders the members area shell.
func (p *Handler) Members(c *gin.Context) {
	s := middleware.CurrentSession(c)
	greeting := "Welcome back"
	if s.Profile != nil && s.Profile.FullName != "" {
		greeting += ", " + s.Profile.FullName
	}
	render(c, http.StatusOK, shell(c, "Members",
		h.H1(g.Text(greeting)),
		app("members", section(c)),
	))
}

// Admin renders the admin CMS shell.
func (p *Handler) Admin(c *gin.Context) {
	render(c, http.StatusOK, shell(c, "Admin",
		h.H1(g.Text("Admin")),
		app("admin", section(c)),
	))
}

func section(c *gin.Context) string {
	return strings.Trim(c.Param("section"), "/")
}

func field(label, name, typ, autocomplete string) g.Node {
	return h.Label(
		g.Text(label),
		h.Input(h.Type(typ), h.Name(name), h.AutoComplete(autocomplete)),
	)
}

func selectField(label, name string, options []string) g.Node {
	opts := make([]g.Node, 0, len(options)+1)
	opts = append(opts, h.Option(h.Value(""), g.Text("Select...")))
	for _, o := range options {
		opts = append(opts, h.Option(h.Value(o), g.Text(o)))
	}
	return h.Label(g.Text(label), h.Select(h.Name(name), g.Group(opts)))
}
