package handler

import (
	"net/http"

	"github.com/itchan-dev/eventboard/shared/api"
	"github.com/itchan-dev/eventboard/shared/csrf"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/logger"
	mw "github.com/itchan-dev/eventboard/shared/middleware"
	"github.com/itchan-dev/eventboard/shared/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	data := domain.RegistrationData{
		Name:        body.Name,
		Credentials: domain.Credentials{Email: body.Email, Password: body.Password},
	}
	if err := h.auth.Register(r.Context(), data); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusCreated, "Registered successfully")
}

// Login answers with the token for API clients and also sets it as an
// HttpOnly cookie together with a readable CSRF cookie for browsers.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	accessToken, err := h.auth.Login(r.Context(), domain.Credentials{Email: body.Email, Password: body.Password})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	csrfToken, err := csrf.GenerateToken()
	if err != nil {
		logger.Log.Error("failed to generate csrf token", "error", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	maxAge := int(h.cfg.JwtTTL().Seconds())
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     mw.AccessTokenCookie,
		Value:    accessToken,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     csrf.CookieName,
		Value:    csrfToken,
		MaxAge:   maxAge,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSON(w, http.StatusOK, api.LoginResponse{Token: accessToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{mw.AccessTokenCookie, csrf.CookieName} {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: name == mw.AccessTokenCookie,
			Secure:   h.cfg.Public.SecureCookies,
		})
	}

	if uid := mw.GetUserIdFromContext(r); uid != "" {
		logger.Log.Info("user logged out", "user_id", uid)
	}
	utils.WriteMessage(w, http.StatusOK, "Logged out")
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	utils.WriteMessage(w, http.StatusOK, "Welcome")
}

func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	uid := mw.GetUserIdFromContext(r)
	if uid == "" {
		utils.WriteMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	user, err := h.auth.UserInfo(r.Context(), uid)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.UserInfoResponse{Name: user.Name, Email: user.Email})
}
