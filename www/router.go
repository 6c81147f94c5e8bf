package www

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"tinacopro/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	tmpls    map[string]*template.Template
	eventHub *EventHub
	log      logrus.FieldLogger
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	logger := eng.Logger().WithField("module", "www")
	hub := NewEventHub(logger)
	hub.Start()
	hub.SetupEngineListeners(eng)

	sessionStore := newSessionStore(eng.AppConfig().Web.SessionSecret)

	// Each page is cloned from the shared layout so its {{define "content"}}
	// does not overwrite another page's.
	base := template.New("").Funcs(templateFuncs())
	base = template.Must(base.ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html"))

	pages := []string{
		"templates/dashboard.html",
		"templates/login.html",
		"templates/config.html",
		"templates/diagnostics.html",
	}
	tmpls := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		clone := template.Must(base.Clone())
		clone = template.Must(clone.ParseFS(templateFS, p))
		tmpls[p[len("templates/"):]] = clone
	}

	h := &Handlers{
		engine:   eng,
		sessions: sessionStore,
		tmpls:    tmpls,
		eventHub: hub,
		log:      logger,
	}

	h.ensureDefaultAdmin()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/events", hub.SSEHandler)

	r.Get("/", h.handleDashboard)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)

	// Reads are open to the plant LAN.
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)
		r.Get("/materials", h.apiListMaterials)
		r.Get("/materials/low", h.apiLowStock)
		r.Get("/materials/{id}/movements", h.apiMaterialMovements)
		r.Get("/materials/{id}/consumption", h.apiMaterialConsumption)
		r.Get("/templates", h.apiListTemplates)
		r.Get("/templates/{id}", h.apiGetTemplate)
		r.Get("/products", h.apiListProducts)
		r.Get("/products/{id}", h.apiGetProduct)
		r.Get("/orders", h.apiListOrders)
		r.Get("/orders/{id}", h.apiGetOrder)
		r.Get("/orders/{id}/consumption", h.apiOrderConsumption)
		r.Get("/finished-goods", h.apiListFinishedGoods)
		r.Get("/shipments", h.apiListShipments)
		r.Get("/shipments/{id}", h.apiGetShipment)
		r.Get("/audit", h.apiAuditLog)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/production.xlsx", h.reportProduction)
		r.Get("/inventory.xlsx", h.reportInventory)
		r.Get("/finished-goods.xlsx", h.reportFinishedGoods)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/config", h.handleConfig)
		r.Post("/config/save", h.handleConfigSave)
		r.Get("/diagnostics", h.handleDiagnostics)

		r.Post("/api/materials", h.apiCreateMaterial)
		r.Put("/api/materials/{id}", h.apiUpdateMaterial)
		r.Delete("/api/materials/{id}", h.apiDeleteMaterial)
		r.Post("/api/materials/{id}/adjust", h.apiAdjustMaterial)
		r.Post("/api/materials/{id}/receive", h.apiReceiveMaterial)

		r.Post("/api/templates", h.apiCreateTemplate)
		r.Put("/api/templates/{id}", h.apiUpdateTemplate)
		r.Delete("/api/templates/{id}", h.apiDeleteTemplate)
		r.Post("/api/templates/{id}/parts", h.apiAddPart)
		r.Put("/api/parts/{id}", h.apiUpdatePart)
		r.Delete("/api/parts/{id}", h.apiDeletePart)

		r.Post("/api/products", h.apiCreateProduct)
		r.Put("/api/products/{id}", h.apiUpdateProduct)
		r.Delete("/api/products/{id}", h.apiDeleteProduct)
		r.Post("/api/products/{id}/materials", h.apiAddProductMaterial)
		r.Delete("/api/products/{id}/materials/{lineID}", h.apiRemoveProductMaterial)
		r.Post("/api/products/{id}/sync-costs", h.apiSyncProductCosts)

		r.Post("/api/orders", h.apiCreateOrder)
		r.Post("/api/orders/daily", h.apiDailyProduction)
		r.Post("/api/orders/{id}/start", h.apiStartOrder)
		r.Post("/api/orders/{id}/complete", h.apiCompleteOrder)
		r.Post("/api/orders/{id}/cancel", h.apiCancelOrder)

		r.Post("/api/shipments", h.apiCreateShipment)
		r.Put("/api/shipments/{id}", h.apiUpdateShipment)
		r.Post("/api/shipments/{id}/status", h.apiShipmentStatus)
		r.Post("/api/shipments/{id}/cancel", h.apiCancelShipment)

		r.Post("/api/housekeeping", h.apiHousekeeping)
		r.Post("/api/account/password", h.apiChangePassword)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := h.tmpls[name]
	if !ok {
		h.log.Errorf("render: template %q not found", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.log.WithError(err).Errorf("render %s", name)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Page":          "login",
		"Authenticated": h.isAuthenticated(r),
	}
	h.render(w, "login.html", data)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, password) {
		h.log.WithField("username", username).Warn("login failed")
		data := map[string]any{
			"Page":  "login",
			"Error": "Invalid username or password",
		}
		h.render(w, "login.html", data)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = username
	if err := session.Save(r, w); err != nil {
		h.log.WithError(err).Error("auth: session save")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
