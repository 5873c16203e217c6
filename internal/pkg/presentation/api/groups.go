package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/google/uuid"
)

// myGroups answers with a bare array, like the oldest endpoints of the real
// backend do. The client's page normalization copes with both shapes.
func (s *impl) myGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := accountID(r.Context())

	groups := []types.Group{}
	for gid := 1; gid < s.nextGroupID; gid++ {
		g, ok := s.groups[gid]
		if ok && g.MemberRole(id) != "" {
			groups = append(groups, g.Group)
		}
	}

	writeJSON(w, http.StatusOK, groups)
}

func (s *impl) createGroup(w http.ResponseWriter, r *http.Request) {
	var req types.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		fieldError(w, "nome", "Este campo é obrigatório.")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		fieldError(w, "senha", "Este campo é obrigatório.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if strings.EqualFold(g.Name, req.Name) {
			fieldError(w, "nome", "grupo com este Nome do Grupo já existe.")
			return
		}
	}

	admin := s.accounts[accountID(r.Context())]

	g := &groupState{
		Group: types.Group{
			ID:       s.nextGroupID,
			Name:     req.Name,
			Address:  req.Address,
			City:     req.City,
			State:    req.State,
			ZipCode:  req.ZipCode,
			Phone:    req.Phone,
			Capacity: req.Capacity,
			Admin:    admin.Profile,
			Members:  []types.Member{{User: admin.Profile, Role: types.RoleAdmin}},
		},
		password:           req.Password,
		accessCode:         uuid.NewString(),
		nextElderID:        1,
		nextMedicationID:   1,
		nextPrescriptionID: 1,
		nextLogID:          1,
	}
	s.groups[g.ID] = g
	s.nextGroupID++

	writeJSON(w, http.StatusCreated, g.Group)
}

func (s *impl) getGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.groups[groupID(r.Context())].Group
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, g)
}

func (s *impl) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]
	if g.Admin.ID != accountID(r.Context()) {
		writeJSON(w, http.StatusForbidden, types.Detail{Detail: "Apenas o administrador pode excluir o lar."})
		return
	}

	delete(s.groups, g.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *impl) groupMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	members := append([]types.Member{}, s.groups[groupID(r.Context())].Members...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, members)
}

func (s *impl) accessCode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]
	if g.Admin.ID != accountID(r.Context()) {
		writeJSON(w, http.StatusForbidden, types.Detail{Detail: "Você não tem permissão para executar essa ação."})
		return
	}

	writeJSON(w, http.StatusOK, types.AccessCodeResponse{AccessCode: g.accessCode})
}

func (s *impl) joinWithCode(w http.ResponseWriter, r *http.Request) {
	var req types.JoinWithCodeRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.AccessCode) == "" {
		writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "Código de acesso não fornecido."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[accountID(r.Context())]

	for _, g := range s.groups {
		if g.accessCode == req.AccessCode {
			if g.MemberRole(a.ID) != "" {
				writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "Você já pertence a este grupo."})
				return
			}
			g.Members = append(g.Members, types.Member{User: a.Profile, Role: types.RoleMember})
			writeJSON(w, http.StatusOK, types.Detail{Detail: fmt.Sprintf("Bem-vindo ao grupo %s!", g.Name)})
			return
		}
	}

	writeJSON(w, http.StatusNotFound, types.Detail{Detail: "Grupo com este código de acesso não encontrado."})
}

func (s *impl) removeMember(w http.ResponseWriter, r *http.Request) {
	var req types.RemoveMemberRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	if g.Admin.ID != accountID(r.Context()) {
		writeJSON(w, http.StatusForbidden, types.Detail{Detail: "Apenas o administrador pode remover membros."})
		return
	}
	if req.UserID == g.Admin.ID {
		writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "O administrador não pode ser removido do lar."})
		return
	}

	for i, m := range g.Members {
		if m.User.ID == req.UserID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			writeJSON(w, http.StatusOK, types.Detail{Detail: "Membro removido."})
			return
		}
	}

	writeJSON(w, http.StatusNotFound, types.Detail{Detail: "Membro não encontrado neste lar."})
}
