package handler

import (
	"net/http"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/core/service"
)

type otpRequest struct {
	Mobile string `json:"mobile"`
}

type signupRequest struct {
	service.SignupRequest
	OTP string `json:"otp"`
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
}

// SendOTP waits for the dispatch to finish. A client that disconnects first
// cancels it.
func (h *HTTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.svc.OTP.Send(r.Context(), req.Mobile)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := task.Wait(r.Context()); err != nil {
		task.Cancel()
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "otp sent"})
}

func (h *HTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.OTP.Verify(req.Mobile, req.OTP); err != nil {
		h.writeError(w, err)
		return
	}

	account, err := h.svc.Accounts.Signup(r.Context(), req.SignupRequest)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.openSession(w, http.StatusCreated, r, account)
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	account, err := h.svc.Accounts.Login(r.Context(), req.Mobile, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.openSession(w, http.StatusOK, r, account)
}

func (h *HTTPHandler) openSession(w http.ResponseWriter, status int, r *http.Request, account domain.Account) {
	sess, err := h.svc.Sessions.Open(r.Context(), account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, Response{
		Success: true,
		Data:    authResponse{Token: sess.Token, Account: sess.Account},
	})
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sessions.Close(r.Context(), session(r).Token); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "signed out"})
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: session(r).Account})
}

func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch service.ProfileUpdate
	if !decode(w, r, &patch) {
		return
	}

	sess := session(r)
	account, err := h.svc.Accounts.UpdateProfile(r.Context(), sess.Account.ID, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Sessions.Update(r.Context(), sess, account); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: account})
}

// Navigation works signed in or not; a missing or stale token gets the
// guest navigation.
func (h *HTTPHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	var account *domain.Account
	if sess, err := h.svc.Sessions.Get(r.Context(), bearerToken(r)); err == nil {
		account = &sess.Account
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: service.Navigation(account)})
}

type preferencesResponse struct {
	domain.Preferences
	Languages []domain.Language `json:"languages"`
}

func (h *HTTPHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.svc.Preferences.Get(r.Context(), session(r).Account.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    preferencesResponse{Preferences: prefs, Languages: domain.Languages},
	})
}

func (h *HTTPHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var patch domain.Preferences
	if !decode(w, r, &patch) {
		return
	}

	prefs, err := h.svc.Preferences.Save(r.Context(), session(r).Account.ID, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: prefs})
}
