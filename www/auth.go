package www

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "tinacopro-session"

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "tinacopro-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false // plant LAN, plain HTTP
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) isAuthenticated(r *http.Request) bool {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

// requireAuth redirects browsers to the login page and answers API callers
// with 401.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAuthenticated(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actor names the logged-in user for audit entries.
func (h *Handlers) actor(r *http.Request) string {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return "web"
	}
	username, _ := session.Values["username"].(string)
	if username == "" {
		return "web"
	}
	return username
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.New) < 8 {
		h.jsonBody(w, http.StatusBadRequest, map[string]any{"error": "password too short", "fields": map[string]string{"New": "min"}})
		return
	}
	username := h.actor(r)
	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if !checkPassword(user.PasswordHash, req.Current) {
		h.jsonError(w, "current password does not match", http.StatusForbidden)
		return
	}
	hash, err := hashPassword(req.New)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if err := h.engine.DB().SetAdminPassword(username, hash); err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", username).Info("password changed")
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// ensureDefaultAdmin seeds admin/admin on an empty user table.
func (h *Handlers) ensureDefaultAdmin() {
	db := h.engine.DB()
	exists, err := db.AdminUserExists()
	if err != nil || exists {
		return
	}
	hash, err := hashPassword("admin")
	if err != nil {
		return
	}
	if err := db.CreateAdminUser("admin", hash); err != nil {
		h.log.WithError(err).Error("create default admin")
		return
	}
	h.log.Warn("created default admin user, change its password")
}
