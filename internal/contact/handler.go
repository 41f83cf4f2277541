package contact

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

const (
	defaultLimit = 100
	defaultDays  = 7
)

// Handler contains HTTP handlers for the owner's contact book
type Handler struct {
	service     *Service
	maxPageSize int
}

func NewHandler(service *Service, maxPageSize int) *Handler {
	return &Handler{service: service, maxPageSize: maxPageSize}
}

// Routes mounts the contact endpoints. They expect auth.Middleware.RequireAuth in front.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/birthdays", h.Birthdays)
	r.Get("/{contactID}", h.Get)
	r.Put("/{contactID}", h.Update)
	r.Delete("/{contactID}", h.Delete)
}

// List returns the current user's contacts
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        name    query string false "Name contains"
// @Param        surname query string false "Surname contains"
// @Param        email   query string false "Email contains"
// @Param        skip    query int    false "Offset" default(0)
// @Param        limit   query int    false "Page size" default(100)
// @Success      200 {array} Contact
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	page := pageParams{Skip: skip, Limit: limit}
	if err := page.Validate(h.maxPageSize); err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	contacts, err := h.service.List(r.Context(), owner.ID, Filter{
		Name:    q.Get("name"),
		Surname: q.Get("surname"),
		Email:   q.Get("email"),
		Skip:    skip,
		Limit:   limit,
	})
	if err != nil {
		h.internalError(w, r, "list contacts", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Birthdays returns contacts whose birthday is within the next days days
// @Summary      Upcoming birthdays
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        days query int false "Window in days, today included" default(7)
// @Success      200 {array} Contact
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /contacts/birthdays [get]
func (h *Handler) Birthdays(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	days, err := intQuery(r, "days", defaultDays)
	if err == nil && days < 1 {
		err = validation.Errors{"days": errors.New("must be no less than 1")}
	}
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), owner.ID, days)
	if err != nil {
		h.internalError(w, r, "list birthdays", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Get returns a single contact
// @Summary      Get contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      200 {object} Contact
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := contactID(r)
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	c, err := h.service.Get(r.Context(), owner.ID, id)
	if err != nil {
		h.respondError(w, r, "get contact", err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Create adds a contact
// @Summary      Create contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Contact"
// @Success      201 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse "Email or phone already used"
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.service.Create(r.Context(), owner.ID, in)
	if err != nil {
		h.respondError(w, r, "create contact", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("contact created", "contact_id", c.ID)
	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Update replaces a contact
// @Summary      Update contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Param        request body Input true "Contact"
// @Success      200 {object} Contact
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      422 {object} httputil.ValidationErrorResponse
// @Router       /contacts/{contactID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := contactID(r)
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	c, err := h.service.Update(r.Context(), owner.ID, id, in)
	if err != nil {
		h.respondError(w, r, "update contact", err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Delete removes a contact and returns it
// @Summary      Delete contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      200 {object} Contact
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := contactID(r)
	if err != nil {
		httputil.RespondValidationError(w, err)
		return
	}

	c, err := h.service.Delete(r.Context(), owner.ID, id)
	if err != nil {
		h.respondError(w, r, "delete contact", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("contact deleted", "contact_id", c.ID)
	httputil.RespondJSON(w, c, http.StatusOK)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return in, false
	}
	if err := in.Validate(h.service.PhoneRegion()); err != nil {
		httputil.RespondValidationError(w, err)
		return in, false
	}
	return in, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var dup *DuplicateError
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "Contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
	case errors.As(err, &dup):
		httputil.RespondErrorWithCode(w, dup.Error(), httputil.CodeContactExists, http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyExists):
		httputil.RespondErrorWithCode(w, "Contact with this email or phone number already exists.", httputil.CodeContactExists, http.StatusBadRequest)
	default:
		h.internalError(w, r, op, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.GetLoggerFromContext(r.Context()).Error("failed to "+op, "error", err.Error())
	httputil.RespondErrorWithCode(w, "failed to "+op, httputil.CodeInternalError, http.StatusInternalServerError)
}

type pageParams struct {
	Skip  int
	Limit int
}

func (p pageParams) Validate(maxLimit int) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Skip, validation.By(atLeast(0))),
		validation.Field(&p.Limit, validation.By(atLeast(1)), validation.Max(maxLimit)),
	)
}

// atLeast checks ints including zero, which validation.Min treats as empty
func atLeast(floor int) validation.RuleFunc {
	return func(value any) error {
		if v, ok := value.(int); ok && v < floor {
			return fmt.Errorf("must be no less than %d", floor)
		}
		return nil
	}
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errors{name: errors.New("must be an integer")}
	}
	return v, nil
}

func contactID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		return uuid.Nil, validation.Errors{"contact_id": errors.New("must be a valid UUID")}
	}
	return id, nil
}
