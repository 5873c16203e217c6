package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/go-chi/chi/v5"
)

// This package is a stand-in for the real backend: it serves the documented
// request/response shapes over in-memory state so the client, the controllers
// and the terminal front-end can be exercised without network access.

type account struct {
	types.Profile
	password string
}

type groupState struct {
	types.Group
	password   string
	accessCode string

	elders        []types.Elder
	medications   []types.Medication
	prescriptions []types.Prescription
	logs          []types.AdministrationLog

	nextElderID        int
	nextMedicationID   int
	nextPrescriptionID int
	nextLogID          int
}

type impl struct {
	mu sync.Mutex

	accounts map[int]*account
	tokens   map[string]int
	groups   map[int]*groupState

	nextAccountID int
	nextGroupID   int
}

// RegisterHandlers mounts the full API surface on the router.
func RegisterHandlers(_ context.Context, r *chi.Mux) error {
	s := &impl{
		accounts:      map[int]*account{},
		tokens:        map[string]int{},
		groups:        map[int]*groupState{},
		nextAccountID: 1,
		nextGroupID:   1,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", s.login)
		r.Post("/auth/register/", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticator)

			r.Post("/auth/logout/", s.logout)
			r.Get("/auth/profile/", s.getProfile)
			r.Put("/auth/profile/", s.updateProfile)
			r.Post("/auth/password/change/", s.changePassword)

			r.Get("/grupos/meus-grupos/", s.myGroups)
			r.Post("/grupos/", s.createGroup)
			r.Post("/grupos/entrar-com-codigo/", s.joinWithCode)

			r.Route("/grupos/{grupoID}", func(r chi.Router) {
				r.Use(s.groupMember)

				r.Get("/", s.getGroup)
				r.Delete("/", s.deleteGroup)
				r.Get("/usuarios/", s.groupMembers)
				r.Get("/codigo-de-acesso/", s.accessCode)
				r.Post("/remover-membro/", s.removeMember)

				r.Get("/idosos/", s.listElders)
				r.Post("/idosos/", s.createElder)
				r.Get("/idosos/{idosoID}/", s.getElder)
				r.Patch("/idosos/{idosoID}/", s.updateElder)
				r.Delete("/idosos/{idosoID}/", s.deleteElder)

				r.Get("/medicamentos/", s.listMedications)
				r.Post("/medicamentos/", s.createMedication)
				r.Get("/medicamentos/{medID}/", s.getMedication)
				r.Patch("/medicamentos/{medID}/", s.updateMedication)
				r.Delete("/medicamentos/{medID}/", s.deleteMedication)

				r.Get("/prescricoes/", s.listPrescriptions)
				r.Post("/prescricoes/", s.createPrescription)
				r.Get("/prescricoes/{prescricaoID}/", s.getPrescription)
				r.Patch("/prescricoes/{prescricaoID}/", s.updatePrescription)
				r.Delete("/prescricoes/{prescricaoID}/", s.deletePrescription)
				r.Post("/prescricoes/{prescricaoID}/administrar/", s.administer)

				r.Get("/logs/", s.listLogs)
			})
		})
	})

	return nil
}

type ctxKey string

const (
	accountKey ctxKey = "account"
	groupKey   ctxKey = "group"
)

// authenticator resolves the Token header into an account, answering 401 the
// way DRF does when the header is missing or stale.
func (s *impl) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Token ") {
			writeJSON(w, http.StatusUnauthorized, types.Detail{Detail: "As credenciais de autenticação não foram fornecidas."})
			return
		}

		s.mu.Lock()
		accountID, ok := s.tokens[strings.TrimPrefix(header, "Token ")]
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, types.Detail{Detail: "Token inválido."})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, accountID)))
	})
}

// groupMember resolves {grupoID} and requires the caller to be a member.
func (s *impl) groupMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		groupID, err := strconv.Atoi(chi.URLParam(r, "grupoID"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, types.Detail{Detail: "Não encontrado."})
			return
		}

		s.mu.Lock()
		g, ok := s.groups[groupID]
		isMember := ok && g.MemberRole(accountID(r.Context())) != ""
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, types.Detail{Detail: "Não encontrado."})
			return
		}
		if !isMember {
			writeJSON(w, http.StatusForbidden, types.Detail{Detail: "Você não tem permissão para executar essa ação."})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), groupKey, groupID)))
	})
}

func accountID(ctx context.Context) int {
	id, _ := ctx.Value(accountKey).(int)
	return id
}

func groupID(ctx context.Context) int {
	id, _ := ctx.Value(groupKey).(int)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fieldError answers a DRF-style per-field validation rejection.
func fieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: {msg}})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "JSON inválido."})
		return false
	}
	return true
}

const pageSize = 20

// paginate slices items into a DRF page envelope with absolute cursor URLs.
func paginate[T any](r *http.Request, items []T) types.Page[T] {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	result := types.Page[T]{
		Count:   len(items),
		Results: items[start:end],
	}

	cursor := func(p int) string {
		return fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, p)
	}

	if end < len(items) {
		result.Next = cursor(page + 1)
	}
	if page > 1 {
		result.Previous = cursor(page - 1)
	}

	return result
}
