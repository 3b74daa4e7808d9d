package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/validation"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type authHandler struct {
	authService       *service.AuthService
	userService       *service.UserService
	googleOAuthConfig *oauth2.Config
	appURL            string
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		userService: userService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		appURL:       cfg.AppURL,
		isProduction: cfg.IsProduction(),
	}
}

// startSession issues the JWT cookie and returns the token for clients
// that prefer the Authorization header.
func (h *authHandler) startSession(w http.ResponseWriter, user *model.User) (string, bool) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		return "", false
	}

	h.authService.SetJWTCookie(w, token, expiry)
	return token, true
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, ok := h.startSession(w, user)
	if !ok {
		render.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	render.JSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Password   string `json:"password" validate:"required"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(in.Identifier, in.Password)
	if err != nil {
		slog.Warn("password login failed", "error", err, "ip", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	token, ok := h.startSession(w, user)
	if !ok {
		render.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	full, err := h.userService.ByID(r.Context(), user.ID)
	if err == nil {
		user = full
	}

	slog.Info("user logged in with password", "user_id", user.ID)
	render.JSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	render.NoContent(w)
}

func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

// CSRF returns the token to echo in the X-CSRF-Token header.
func (h *authHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"csrf_token": ctxkeys.CSRFToken(r.Context())})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers 202 so addresses cannot be probed.
func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.authService.RequestPasswordReset(r.Context(), in.Email)
	if err != nil {
		slog.Warn("password reset request failed", "error", err)
	}

	render.JSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for this address, a reset link has been sent.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.ResetPassword(in.Token, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, ok := h.startSession(w, user)
	if !ok {
		render.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	render.JSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig.ClientID == "" {
		render.Error(w, http.StatusServiceUnavailable, "google login is not configured")
		return
	}

	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth callback from Google and sends the
// browser back to the app.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	failed := h.appURL + "/login?error=oauth"

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("google oauth state validation failed", "error", err)
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var profile service.OAuthProfile
	err = json.NewDecoder(resp.Body).Decode(&profile)
	if err != nil {
		slog.Error("failed to decode google user info", "error", err)
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), profile, "google")
	if err != nil {
		slog.Error("oauth authentication failed", "error", err)
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	if _, ok := h.startSession(w, user); !ok {
		http.Redirect(w, r, failed, http.StatusSeeOther)
		return
	}

	slog.Info("user logged in with google oauth", "user_id", user.ID)
	http.Redirect(w, r, h.appURL+"/", http.StatusSeeOther)
}

func generateOAuthState() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
