package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/services"
)

// authResponse pairs the public profile with the freshly issued token.
type authResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, authResponse{User: user.Public(), Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, authResponse{User: user.Public(), Token: token})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.users.Logout(r.Context(), user.ID, requestToken(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, nil)
}

func (s *HTTPServer) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if err := s.users.LogoutAll(r.Context(), user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, nil)
}

func (s *HTTPServer) handleGetMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, requestUser(r).Public())
}

// userUpdateFields is the set of keys a profile PATCH may carry. Requests
// naming anything else are rejected outright instead of silently filtered.
var userUpdateFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

func (s *HTTPServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	for key := range raw {
		if !userUpdateFields[key] {
			s.writeError(w, r, http.StatusBadRequest, "invalid updates")
			return
		}
	}

	var upd services.UserUpdate
	fields := map[string]any{
		"name":     &upd.Name,
		"email":    &upd.Email,
		"password": &upd.Password,
		"age":      &upd.Age,
	}
	for key, dst := range fields {
		if body, ok := raw[key]; ok {
			if err := json.Unmarshal(body, dst); err != nil {
				s.writeError(w, r, http.StatusBadRequest, "invalid request body")
				return
			}
		}
	}

	user, err := s.users.Update(r.Context(), requestUser(r).ID, upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, user.Public())
}

func (s *HTTPServer) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Delete(r.Context(), requestUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, user.Public())
}

var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func (s *HTTPServer) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.avatarMaxBytes)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "please upload an image")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !avatarExtensions[ext] {
		s.writeError(w, r, http.StatusBadRequest, "please upload an image")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "please upload an image")
		return
	}

	if err := s.users.SetAvatar(r.Context(), requestUser(r).ID, data); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, nil)
}

func (s *HTTPServer) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteAvatar(r.Context(), requestUser(r).ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, nil)
}

// handleGetAvatar is deliberately public: avatars are served by user id with
// no authentication, always as the normalized PNG.
func (s *HTTPServer) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	png, err := s.users.GetAvatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
