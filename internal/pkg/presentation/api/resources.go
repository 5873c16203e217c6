package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/go-chi/chi/v5"
)

func urlParamID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	return id, err == nil
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, types.Detail{Detail: "Não encontrado."})
}

// listElders pages through summary records. The full record, contacts and
// prescriptions included, is only served by the detail endpoint.
func (s *impl) listElders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.groups[groupID(r.Context())]

	summaries := make([]types.Elder, 0, len(g.elders))
	for _, e := range g.elders {
		summaries = append(summaries, types.Elder{ID: e.ID, FullName: e.FullName, BirthDate: e.BirthDate})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(r, summaries))
}

func (s *impl) createElder(w http.ResponseWriter, r *http.Request) {
	var e types.Elder
	if !decode(w, r, &e) {
		return
	}

	required := map[string]string{
		"nome_completo":   e.FullName,
		"data_nascimento": e.BirthDate,
		"cpf":             e.CPF,
		"cartao_sus":      e.SUSCard,
	}
	for _, field := range []string{"nome_completo", "data_nascimento", "cpf", "cartao_sus"} {
		if strings.TrimSpace(required[field]) == "" {
			fieldError(w, field, "Este campo é obrigatório.")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for _, existing := range g.elders {
		if existing.CPF == e.CPF {
			fieldError(w, "cpf", "idoso com este CPF já existe.")
			return
		}
	}

	e.ID = g.nextElderID
	g.nextElderID++
	e.Prescriptions = nil
	g.elders = append(g.elders, e)

	writeJSON(w, http.StatusCreated, e)
}

func (s *impl) getElder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "idosoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for _, e := range g.elders {
		if e.ID == id {
			e.Prescriptions = g.prescriptionsForElder(e.ID)
			writeJSON(w, http.StatusOK, e)
			return
		}
	}

	notFound(w)
}

func (s *impl) updateElder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "idosoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for i, e := range g.elders {
		if e.ID != id {
			continue
		}

		// Partial update: decode over a copy of the stored record so
		// absent fields keep their current values.
		patched := e
		if !decode(w, r, &patched) {
			return
		}
		patched.ID = e.ID

		for _, other := range g.elders {
			if other.ID != e.ID && other.CPF == patched.CPF {
				fieldError(w, "cpf", "idoso com este CPF já existe.")
				return
			}
		}

		g.elders[i] = patched
		writeJSON(w, http.StatusOK, patched)
		return
	}

	notFound(w)
}

func (s *impl) deleteElder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "idosoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for i, e := range g.elders {
		if e.ID == id {
			g.elders = append(g.elders[:i], g.elders[i+1:]...)

			remaining := g.prescriptions[:0]
			for _, p := range g.prescriptions {
				if p.ElderID != id {
					remaining = append(remaining, p)
				}
			}
			g.prescriptions = remaining

			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	notFound(w)
}

func (s *impl) listMedications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	medications := append([]types.Medication{}, s.groups[groupID(r.Context())].medications...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, medications)
}

func (s *impl) createMedication(w http.ResponseWriter, r *http.Request) {
	var m types.Medication
	if !decode(w, r, &m) {
		return
	}

	if strings.TrimSpace(m.Name) == "" {
		fieldError(w, "nome", "Este campo é obrigatório.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for _, existing := range g.medications {
		if strings.EqualFold(existing.Name, m.Name) {
			fieldError(w, "nome", "medicamento com este Nome já existe.")
			return
		}
	}

	m.ID = g.nextMedicationID
	g.nextMedicationID++
	g.medications = append(g.medications, m)

	writeJSON(w, http.StatusCreated, m)
}

func (s *impl) getMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "medID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.groups[groupID(r.Context())].medications {
		if m.ID == id {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}

	notFound(w)
}

func (s *impl) updateMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "medID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for i, m := range g.medications {
		if m.ID != id {
			continue
		}

		patched := m
		if !decode(w, r, &patched) {
			return
		}
		patched.ID = m.ID

		g.medications[i] = patched
		writeJSON(w, http.StatusOK, patched)
		return
	}

	notFound(w)
}

// deleteMedication refuses when an active prescription still references the
// medication, mirroring the backend's protected delete.
func (s *impl) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "medID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for _, p := range g.prescriptions {
		if p.MedicationID == id && p.Active {
			writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "Não é possível excluir este medicamento: há uma prescrição ativa que o utiliza."})
			return
		}
	}

	for i, m := range g.medications {
		if m.ID == id {
			g.medications = append(g.medications[:i], g.medications[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	notFound(w)
}

// prescriptionsForElder expands the stored references into the read shape.
// Callers must hold the lock.
func (g *groupState) prescriptionsForElder(elderID int) []types.Prescription {
	var out []types.Prescription
	for _, p := range g.prescriptions {
		if p.ElderID == elderID {
			out = append(out, g.expand(p))
		}
	}
	return out
}

func (g *groupState) expand(p types.Prescription) types.Prescription {
	for _, m := range g.medications {
		if m.ID == p.MedicationID {
			medication := m
			p.Medication = &medication
			break
		}
	}
	for _, e := range g.elders {
		if e.ID == p.ElderID {
			p.Elder = e.FullName
			break
		}
	}
	return p
}

func (s *impl) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.groups[groupID(r.Context())]

	expanded := make([]types.Prescription, 0, len(g.prescriptions))
	for _, p := range g.prescriptions {
		expanded = append(expanded, g.expand(p))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(r, expanded))
}

func (s *impl) createPrescription(w http.ResponseWriter, r *http.Request) {
	var p types.Prescription
	if !decode(w, r, &p) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	if g.elderByID(p.ElderID) == nil {
		fieldError(w, "idoso_id", "Idoso inválido para este lar.")
		return
	}
	if g.medicationByID(p.MedicationID) == nil {
		fieldError(w, "medicamento_id", "Medicamento inválido para este lar.")
		return
	}
	if strings.TrimSpace(p.ScheduledTime) == "" {
		fieldError(w, "horario_previsto", "Este campo é obrigatório.")
		return
	}

	p.ID = g.nextPrescriptionID
	g.nextPrescriptionID++
	p.Medication = nil
	p.Elder = ""
	g.prescriptions = append(g.prescriptions, p)

	writeJSON(w, http.StatusCreated, g.expand(p))
}

func (g *groupState) elderByID(id int) *types.Elder {
	for i := range g.elders {
		if g.elders[i].ID == id {
			return &g.elders[i]
		}
	}
	return nil
}

func (g *groupState) medicationByID(id int) *types.Medication {
	for i := range g.medications {
		if g.medications[i].ID == id {
			return &g.medications[i]
		}
	}
	return nil
}

func (s *impl) getPrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "prescricaoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for _, p := range g.prescriptions {
		if p.ID == id {
			writeJSON(w, http.StatusOK, g.expand(p))
			return
		}
	}

	notFound(w)
}

func (s *impl) updatePrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "prescricaoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for i, p := range g.prescriptions {
		if p.ID != id {
			continue
		}

		patched := p
		if !decode(w, r, &patched) {
			return
		}
		patched.ID = p.ID
		patched.Medication = nil
		patched.Elder = ""

		if g.elderByID(patched.ElderID) == nil {
			fieldError(w, "idoso_id", "Idoso inválido para este lar.")
			return
		}
		if g.medicationByID(patched.MedicationID) == nil {
			fieldError(w, "medicamento_id", "Medicamento inválido para este lar.")
			return
		}

		g.prescriptions[i] = patched
		writeJSON(w, http.StatusOK, g.expand(patched))
		return
	}

	notFound(w)
}

func (s *impl) deletePrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "prescricaoID")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	for i, p := range g.prescriptions {
		if p.ID == id {
			g.prescriptions = append(g.prescriptions[:i], g.prescriptions[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	notFound(w)
}

// administer appends an immutable log entry. A confirmed dose additionally
// decrements the medication stock and is refused when the stock is empty.
func (s *impl) administer(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "prescricaoID")
	if !ok {
		notFound(w)
		return
	}

	var req types.AdministerRequest
	if !decode(w, r, &req) {
		return
	}

	switch req.Status {
	case types.StatusAdministered, types.StatusRefused, types.StatusSkipped:
	default:
		fieldError(w, "status", "Status inválido.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groups[groupID(r.Context())]

	var prescription *types.Prescription
	for i := range g.prescriptions {
		if g.prescriptions[i].ID == id {
			prescription = &g.prescriptions[i]
			break
		}
	}
	if prescription == nil {
		notFound(w)
		return
	}

	if req.Status == types.StatusAdministered {
		m := g.medicationByID(prescription.MedicationID)
		if m == nil || m.StockQuantity <= 0 {
			writeJSON(w, http.StatusBadRequest, types.Detail{Detail: "Estoque insuficiente para registrar a administração."})
			return
		}
		m.StockQuantity--
	}

	when := req.Timestamp
	if when.IsZero() {
		when = time.Now().UTC()
	}

	entry := types.AdministrationLog{
		ID:             g.nextLogID,
		PrescriptionID: prescription.ID,
		Timestamp:      when,
		Status:         req.Status,
		Notes:          req.Notes,
		ActingUser:     s.accounts[accountID(r.Context())].FullName,
	}
	g.nextLogID++
	g.logs = append([]types.AdministrationLog{entry}, g.logs...)

	writeJSON(w, http.StatusCreated, entry)
}

// listLogs pages newest first.
func (s *impl) listLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	logs := append([]types.AdministrationLog{}, s.groups[groupID(r.Context())].logs...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(r, logs))
}
