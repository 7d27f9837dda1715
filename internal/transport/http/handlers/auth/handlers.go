package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	authtoken "ems/internal/auth"
	domauth "ems/internal/domain/auth"
	"ems/internal/platform/sso"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
)

const sessionTTL = 8 * time.Hour

type Handler struct {
	Service  *domauth.Service
	Secret   string
	Identity sso.Identity
}

func NewHandler(service *domauth.Service, secret string, identity sso.Identity) *Handler {
	return &Handler{Service: service, Secret: secret, Identity: identity}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Service.FindActiveUserByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err := authtoken.CheckPassword(user.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
			return
		}
		if user.MFASecret == "" || !totp.Validate(payload.MFACode, user.MFASecret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
			return
		}
	}

	roleName := user.RoleName
	if h.Identity != nil && user.EmployeeNumber != "" {
		ssoRole, err := h.Identity.RoleByEmployeeNumber(r.Context(), user.EmployeeNumber)
		if err != nil {
			slog.Warn("sso role lookup failed", "employeeNumber", user.EmployeeNumber, "err", err)
		} else if ssoRole != "" && ssoRole != roleName {
			slog.Warn("sso role differs from local role", "employeeNumber", user.EmployeeNumber, "local", roleName, "sso", ssoRole)
		}
	}

	sessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.CreateSession(r.Context(), user.ID, authtoken.HashToken(sessionID), time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := authtoken.GenerateToken(h.Secret, authtoken.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		RoleID:     user.RoleID,
		RoleName:   user.RoleName,
		SessionID:  sessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":         user.ID,
			"employeeId": user.EmployeeID,
			"roleId":     user.RoleID,
			"role":       user.RoleName,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.bearerClaims(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	valid, err := h.Service.SessionValid(r.Context(), claims.UserID, authtoken.HashToken(claims.SessionID))
	if err != nil || !valid {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", middleware.GetRequestID(r.Context()))
		return
	}

	newSessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.RotateSession(r.Context(), claims.UserID, authtoken.HashToken(claims.SessionID), authtoken.HashToken(newSessionID), time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := authtoken.GenerateToken(h.Secret, authtoken.Claims{
		UserID:     claims.UserID,
		EmployeeID: claims.EmployeeID,
		RoleID:     claims.RoleID,
		RoleName:   claims.RoleName,
		SessionID:  newSessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"token": token}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := h.bearerClaims(r); ok && claims.SessionID != "" {
		if err := h.Service.RevokeSession(r.Context(), claims.UserID, authtoken.HashToken(claims.SessionID)); err != nil {
			slog.Warn("logout session revoke failed", "userId", claims.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// Always succeed so the endpoint cannot be used to probe accounts.
	userID, err := h.Service.UserIDByEmail(r.Context(), payload.Email)
	if err == nil && userID != "" {
		token, err := generateToken()
		if err == nil {
			if err := h.Service.CreatePasswordReset(r.Context(), userID, authtoken.HashToken(token), time.Now().Add(time.Hour)); err != nil {
				slog.Warn("password reset create failed", "userId", userID, "err", err)
			} else {
				slog.Info("password reset issued", "userId", userID)
			}
		}
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters", middleware.GetRequestID(r.Context()))
		return
	}

	tokenHash := authtoken.HashToken(payload.Token)
	userID, err := h.Service.PasswordResetUserID(r.Context(), tokenHash)
	if err != nil || userID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired reset token", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := authtoken.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.UpdateUserPassword(r.Context(), userID, hash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.MarkPasswordResetUsed(r.Context(), tokenHash); err != nil {
		slog.Warn("password reset mark used failed", "userId", userID, "err", err)
	}
	api.Success(w, map[string]string{"status": "password_updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "ems", AccountName: user.UserID})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to generate mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.UpdateMFASecret(r.Context(), user.UserID, key.Secret()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"secret": key.Secret(), "url": key.URL()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	secret, err := h.Service.MFASecret(r.Context(), user.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_not_setup", "mfa setup required first", middleware.GetRequestID(r.Context()))
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.SetMFAEnabled(r.Context(), user.UserID, true); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to enable mfa", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "mfa_enabled"}, middleware.GetRequestID(r.Context()))
}

// HandleDeviceTokens returns the caller's push device tokens from the
// company SSO service. Empty when SSO is not configured.
func (h *Handler) HandleDeviceTokens(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.bearerClaims(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Identity == nil {
		api.Success(w, map[string]any{"tokens": []string{}}, middleware.GetRequestID(r.Context()))
		return
	}

	number, err := h.Service.EmployeeNumberByUserID(r.Context(), claims.UserID)
	if err != nil || number == "" {
		api.Success(w, map[string]any{"tokens": []string{}}, middleware.GetRequestID(r.Context()))
		return
	}

	tokens, err := h.Identity.DeviceTokens(r.Context(), number)
	if err != nil {
		slog.Warn("sso device token lookup failed", "employeeNumber", number, "err", err)
		api.Fail(w, http.StatusBadGateway, "sso_unavailable", "device token lookup failed", middleware.GetRequestID(r.Context()))
		return
	}
	if tokens == nil {
		tokens = []string{}
	}
	api.Success(w, map[string]any{"tokens": tokens}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) bearerClaims(r *http.Request) (*authtoken.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, false
	}
	claims, err := authtoken.ParseToken(h.Secret, parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
