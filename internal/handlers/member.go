package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/internal/store"
)

const maxSignupFormMemory = 1 << 20

// Internal login failure codes. Both map to the same external message so
// the response does not reveal whether the account exists.
const (
	codeAccountNotFound  = 402
	codePasswordMismatch = 406
)

const loginFailedMessage = "account or password incorrect"

// MemberHandler provides the member identity endpoints.
type MemberHandler struct {
	service *services.MemberService
	issuer  *auth.TokenIssuer
}

// NewMemberHandler constructs a handler with the provided dependencies.
func NewMemberHandler(service *services.MemberService, issuer *auth.TokenIssuer) *MemberHandler {
	return &MemberHandler{service: service, issuer: issuer}
}

// MemberRouter registers member routes on the given router. All routes that
// read member-scoped data are guarded by the gate; none check tokens
// themselves.
func MemberRouter(r chi.Router, service *services.MemberService, issuer *auth.TokenIssuer, gate *AccessGate) {
	handler := NewMemberHandler(service, issuer)

	r.Post("/signup", handler.SignUp)
	r.Post("/login", handler.Login)
	r.With(gate.RequireAuth).Get("/profile", handler.Profile)
	r.With(gate.RequireAuth).Get("/{memberID}", handler.GetMember)
}

type signUpRequest struct {
	Account  string `json:"member_account"`
	Password string `json:"member_password"`
	Name     string `json:"member_name"`
	Address  string `json:"member_address"`
	Birthday string `json:"member_birthday"`
}

type loginRequest struct {
	Account  string `json:"member_account"`
	Password string `json:"member_password"`
}

type loginData struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Token      string `json:"token"`
}

// SignUp registers a new member. It accepts JSON or multipart form input.
func (h *MemberHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := parseSignUpRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	member, err := h.service.Register(r.Context(), services.RegisterInput{
		Account:  req.Account,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Birthday: req.Birthday,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "missing required fields")
		case errors.Is(err, store.ErrDuplicateAccount):
			writeError(w, http.StatusConflict, "account already in use")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create member")
		}
		return
	}

	writeJSON(w, http.StatusCreated, Response{Success: true, Data: member})
}

// Login verifies credentials and returns a signed identity token. Unknown
// accounts and wrong passwords carry distinct internal codes but the same
// external message.
func (h *MemberHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, 0, "invalid request")
		return
	}

	member, err := h.service.Login(r.Context(), req.Account, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeFailure(w, http.StatusBadRequest, 0, "missing required fields")
		case errors.Is(err, services.ErrAccountNotFound):
			writeFailure(w, http.StatusUnauthorized, codeAccountNotFound, loginFailedMessage)
		case errors.Is(err, services.ErrPasswordMismatch):
			writeFailure(w, http.StatusUnauthorized, codePasswordMismatch, loginFailedMessage)
		default:
			writeFailure(w, http.StatusInternalServerError, 0, "failed to authenticate")
		}
		return
	}

	token, err := h.issuer.Issue(member)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, 0, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: loginData{
			MemberID:   member.ID,
			MemberName: member.Name,
			Token:      token,
		},
	})
}

// GetMember returns the member row for the given id.
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberID")
	if id == "" {
		writeFailure(w, http.StatusBadRequest, 0, "invalid member id")
		return
	}

	member, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, 0, "no data")
			return
		}
		writeFailure(w, http.StatusInternalServerError, 0, "failed to fetch member")
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: member})
}

// Profile returns the member row for the authenticated subject. The id
// comes from the verified claims, never from caller input, so a caller
// cannot fetch another member's profile by id substitution.
func (h *MemberHandler) Profile(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, 0, "not authenticated")
		return
	}

	member, err := h.service.GetByID(r.Context(), subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, 0, "no data")
			return
		}
		writeFailure(w, http.StatusInternalServerError, 0, "failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: member})
}

func parseSignUpRequest(r *http.Request) (signUpRequest, error) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		contentType = ""
	}

	if contentType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSignupFormMemory); err != nil {
			return signUpRequest{}, err
		}
		return signUpRequest{
			Account:  r.FormValue("member_account"),
			Password: r.FormValue("member_password"),
			Name:     r.FormValue("member_name"),
			Address:  r.FormValue("member_address"),
			Birthday: r.FormValue("member_birthday"),
		}, nil
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return signUpRequest{}, err
	}
	return req, nil
}
