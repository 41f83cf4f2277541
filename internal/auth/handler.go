package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the auth endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/confirmed_email/{token}", h.ConfirmedEmail)
	r.Post("/request_email", h.RequestEmail)
	r.Post("/reset_password", h.ResetPassword)
	r.Get("/confirm_reset_password/{token}", h.ConfirmResetPassword)
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     user.Role `json:"role"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 50), validation.By(usernameRule)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 128)),
		// admin is accepted unless ALLOW_ADMIN_SIGNUP=false
		validation.Field(&r.Role, validation.In(user.RoleUser, user.RoleAdmin)),
	)
}

func usernameRule(value any) error {
	if name, _ := value.(string); name != "" && !user.ValidUsername(name) {
		return errors.New("must not contain @")
	}
	return nil
}

// LoginRequest represents the login credentials, sent as a form or as JSON
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RequestEmailRequest asks for a new verification email
type RequestEmailRequest struct {
	Email string `json:"email"`
}

func (r RequestEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest carries the account email and the desired new password
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 128)),
	)
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account. A confirmation email is sent in the background.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} user.User
// @Failure      403 {object} httputil.ErrorResponse "Admin role requested while ALLOW_ADMIN_SIGNUP=false"
// @Failure      409 {object} httputil.ErrorResponse "Email or username already exists"
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email, "username": req.Username})

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAdminSignupDisabled):
			logger.Warn("registration failed: admin role requested")
			httputil.RespondErrorWithCode(w, "Registering as admin is not allowed.", httputil.CodeForbidden, http.StatusForbidden)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "A user with this email already exists.", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("registration failed: username already exists")
			httputil.RespondErrorWithCode(w, "A user with this name already exists.", httputil.CodeUsernameAlreadyExists, http.StatusConflict)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Exchange username and password for a bearer access token
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username formData string true "Username"
// @Param        password formData string true "Password"
// @Success      200 {object} AuthTokens
// @Failure      401 {object} httputil.ErrorResponse "Wrong credentials or email not verified"
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	req, err := decodeLoginRequest(r)
	if err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	tokens, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondErrorWithCode(w, "Wrong email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailNotVerified):
			logger.Warn("login failed: email not verified")
			httputil.RespondErrorWithCode(w, "Email not verified.", httputil.CodeEmailNotVerified, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully")
	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// ConfirmedEmail handles the link sent in verification emails
// @Summary      Confirm email address
// @Tags         auth
// @Produce      json
// @Param        token path string true "Verification token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Unknown user"
// @Failure      422 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /auth/confirmed_email/{token} [get]
func (h *Handler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	err := h.service.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	switch {
	case err == nil:
		logger.Info("email verified successfully")
		httputil.RespondMessage(w, "Email has been verified.", http.StatusOK)
	case errors.Is(err, ErrEmailAlreadyVerified):
		httputil.RespondMessage(w, "Your email is already verified.", http.StatusOK)
	case errors.Is(err, ErrInvalidVerificationToken):
		logger.Warn("email verification failed: invalid token", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid token for email verification", httputil.CodeInvalidToken, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrVerificationFailed):
		logger.Warn("email verification failed: unknown user")
		httputil.RespondErrorWithCode(w, "Verification error", httputil.CodeVerificationFailed, http.StatusBadRequest)
	default:
		logger.Error("email verification failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// RequestEmail resends the verification email
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RequestEmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Router       /auth/request_email [post]
func (h *Handler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RequestEmailRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	err := h.service.RequestEmail(r.Context(), req.Email)
	switch {
	case err == nil:
		httputil.RespondMessage(w, "Check your email for confirmation.", http.StatusOK)
	case errors.Is(err, ErrEmailAlreadyVerified):
		httputil.RespondMessage(w, "Your email is already confirmed", http.StatusOK)
	default:
		logger.Error("request email failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send email", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// ResetPassword starts a password reset
// @Summary      Request password reset
// @Description  The new password is hashed now and carried by the emailed token until it is confirmed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email and new password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Email not verified"
// @Router       /auth/reset_password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	found, err := h.service.RequestPasswordReset(r.Context(), req.Email, req.Password)
	switch {
	case err == nil && !found:
		httputil.RespondMessage(w, "Check your email for confirmation.", http.StatusOK)
	case err == nil:
		logger.Info("password reset requested")
		httputil.RespondMessage(w, "Check your email for verification.", http.StatusOK)
	case errors.Is(err, ErrEmailNotVerified):
		httputil.RespondErrorWithCode(w, "Your email is not verified.", httputil.CodeEmailNotVerified, http.StatusBadRequest)
	default:
		logger.Error("password reset request failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// ConfirmResetPassword applies the password carried by a reset token
// @Summary      Confirm password reset
// @Tags         auth
// @Produce      json
// @Param        token path string true "Reset token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /auth/confirm_reset_password/{token} [get]
func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	err := h.service.ConfirmPasswordReset(r.Context(), chi.URLParam(r, "token"))
	switch {
	case err == nil:
		logger.Info("password reset successfully")
		httputil.RespondMessage(w, "Password successfully changed.", http.StatusOK)
	case errors.Is(err, ErrInvalidResetToken):
		logger.Warn("password reset failed: invalid token", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid or expired token.", httputil.CodeInvalidToken, http.StatusBadRequest)
	case errors.Is(err, user.ErrNotFound):
		httputil.RespondErrorWithCode(w, "User with this email address not found", httputil.CodeUserNotFound, http.StatusNotFound)
	default:
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// decodeLoginRequest accepts an OAuth2 password form or a JSON body
func decodeLoginRequest(r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := httputil.DecodeJSON(r, &req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}
