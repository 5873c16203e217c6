package api

import (
	"net/http"
	"strings"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/google/uuid"
)

func (s *impl) login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, req.Email) && a.password == req.Password {
			token := uuid.NewString()
			s.tokens[token] = a.ID
			writeJSON(w, http.StatusOK, types.LoginResponse{Key: token})
			return
		}
	}

	fieldError(w, "non_field_errors", "Não é possível fazer login com as credenciais fornecidas.")
}

func (s *impl) register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	required := []struct{ field, value string }{
		{"email", req.Email},
		{"nome_completo", req.FullName},
		{"password", req.Password},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fieldError(w, f.field, "Este campo é obrigatório.")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, req.Email) {
			fieldError(w, "email", "usuário com este endereço de e-mail já existe.")
			return
		}
	}

	a := &account{
		Profile:  types.Profile{ID: s.nextAccountID, Email: req.Email, FullName: req.FullName},
		password: req.Password,
	}
	s.accounts[a.ID] = a
	s.nextAccountID++

	writeJSON(w, http.StatusCreated, a.Profile)
}

func (s *impl) logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")

	s.mu.Lock()
	delete(s.tokens, strings.TrimPrefix(header, "Token "))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.Detail{Detail: "Deslogado com sucesso."})
}

func (s *impl) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	profile := s.accounts[accountID(r.Context())].Profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

func (s *impl) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.Profile
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		fieldError(w, "email", "Este campo é obrigatório.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[accountID(r.Context())]

	for _, other := range s.accounts {
		if other.ID != a.ID && strings.EqualFold(other.Email, req.Email) {
			fieldError(w, "email", "usuário com este endereço de e-mail já existe.")
			return
		}
	}

	a.Email = req.Email
	if strings.TrimSpace(req.FullName) != "" {
		a.FullName = req.FullName
	}

	writeJSON(w, http.StatusOK, a.Profile)
}

func (s *impl) changePassword(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordChangeRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[accountID(r.Context())]

	if req.OldPassword != a.password {
		fieldError(w, "old_password", "Senha atual incorreta.")
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		fieldError(w, "new_password2", "Os dois campos de senha não correspondem.")
		return
	}
	if len(req.NewPassword1) < 6 {
		fieldError(w, "new_password1", "A senha deve ter pelo menos 6 caracteres.")
		return
	}

	a.password = req.NewPassword1
	writeJSON(w, http.StatusOK, types.Detail{Detail: "Nova senha salva."})
}
