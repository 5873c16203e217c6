package types

import "time"

// Profile is the authenticated user as returned by /api/auth/profile/.
type Profile struct {
	ID       int    `json:"id"`
	FullName string `json:"nome_completo"`
	Email    string `json:"email"`
}

const (
	RoleAdmin  string = "ADMIN"
	RoleMember string = "MEMBRO"
)

// Member is a user profile inside a group, carrying its role within that group.
type Member struct {
	User Profile `json:"user"`
	Role string  `json:"permissao"`
}

// Group ("Lar") is a managed household that owns elders, medications and prescriptions.
type Group struct {
	ID       int      `json:"id"`
	Name     string   `json:"nome"`
	Address  string   `json:"endereco,omitempty"`
	City     string   `json:"cidade,omitempty"`
	State    string   `json:"estado,omitempty"`
	ZipCode  string   `json:"cep,omitempty"`
	Phone    string   `json:"telefone,omitempty"`
	Capacity int      `json:"capacidade,omitempty"`
	Admin    Profile  `json:"admin"`
	Members  []Member `json:"membros"`
}

// MemberRole returns the role the given user holds in the group, or an empty
// string when the user is not a member.
func (g Group) MemberRole(userID int) string {
	for _, m := range g.Members {
		if m.User.ID == userID {
			return m.Role
		}
	}
	return ""
}

// RelativeContact is a family contact attached to an elder record.
type RelativeContact struct {
	ID           int    `json:"id,omitempty"`
	Name         string `json:"nome"`
	Relationship string `json:"parentesco"`
	Phone        string `json:"telefone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Elder ("Idoso") is a resident record. List endpoints return only the id,
// name and birth date; detail endpoints return the full record including
// contacts and prescriptions.
type Elder struct {
	ID                   int               `json:"id,omitempty"`
	FullName             string            `json:"nome_completo"`
	BirthDate            string            `json:"data_nascimento"` // YYYY-MM-DD
	WeightKg             float64           `json:"peso,omitempty"`
	Gender               string            `json:"genero,omitempty"`
	CPF                  string            `json:"cpf,omitempty"`
	RG                   string            `json:"rg,omitempty"`
	SUSCard              string            `json:"cartao_sus,omitempty"`
	HasHealthPlan        bool              `json:"possui_plano_saude,omitempty"`
	HealthPlan           string            `json:"plano_saude,omitempty"`
	HealthPlanOther      string            `json:"plano_saude_outro,omitempty"`
	HealthPlanCardNumber string            `json:"numero_carteirinha_plano,omitempty"`
	Diseases             string            `json:"doencas,omitempty"`
	Conditions           string            `json:"condicoes,omitempty"`
	Contacts             []RelativeContact `json:"contatos,omitempty"`
	Prescriptions        []Prescription    `json:"prescricoes,omitempty"`
}

// Medication is a stock item owned by a group. The stock quantity is
// decremented server side when a dose is administered.
type Medication struct {
	ID               int     `json:"id,omitempty"`
	Name             string  `json:"nome"`
	ActiveIngredient string  `json:"principio_ativo,omitempty"`
	DoseValue        float64 `json:"dosagem_valor,omitempty"`
	DoseUnit         string  `json:"dosagem_unidade,omitempty"`
	Form             string  `json:"forma_farmaceutica,omitempty"`
	StockQuantity    int     `json:"quantidade_estoque"`
}

// Prescription ("Prescrição") is a recurring schedule entry tying an elder to
// a medication. The elder and medication references are ids on write and
// expanded representations on read.
type Prescription struct {
	ID            int         `json:"id,omitempty"`
	ElderID       int         `json:"idoso_id,omitempty"`
	MedicationID  int         `json:"medicamento_id,omitempty"`
	Elder         string      `json:"idoso,omitempty"`
	Medication    *Medication `json:"medicamento,omitempty"`
	ScheduledTime string      `json:"horario_previsto"` // HH:MM
	Dosage        string      `json:"dosagem"`
	Instructions  string      `json:"instrucoes,omitempty"`
	Active        bool        `json:"ativo"`

	Sunday    bool `json:"domingo"`
	Monday    bool `json:"segunda"`
	Tuesday   bool `json:"terca"`
	Wednesday bool `json:"quarta"`
	Thursday  bool `json:"quinta"`
	Friday    bool `json:"sexta"`
	Saturday  bool `json:"sabado"`
}

// ScheduledOn reports whether the prescription is flagged for the given weekday.
func (p Prescription) ScheduledOn(day time.Weekday) bool {
	switch day {
	case time.Sunday:
		return p.Sunday
	case time.Monday:
		return p.Monday
	case time.Tuesday:
		return p.Tuesday
	case time.Wednesday:
		return p.Wednesday
	case time.Thursday:
		return p.Thursday
	case time.Friday:
		return p.Friday
	case time.Saturday:
		return p.Saturday
	}
	return false
}

const (
	StatusAdministered string = "administrado"
	StatusRefused      string = "recusado"
	StatusSkipped      string = "pulado"
)

// AdministrationLog ("Administração") records a single dose being given,
// refused or skipped. Logs are immutable except for deletion.
type AdministrationLog struct {
	ID             int       `json:"id,omitempty"`
	PrescriptionID int       `json:"prescricao"`
	Timestamp      time.Time `json:"data_hora_administracao"`
	Status         string    `json:"status"`
	Notes          string    `json:"observacoes,omitempty"`
	ActingUser     string    `json:"usuario_responsavel,omitempty"`
}

// AdministerRequest is the payload for POST .../prescricoes/{id}/administrar/.
type AdministerRequest struct {
	Timestamp time.Time `json:"data_hora_administracao"`
	Status    string    `json:"status"`
	Notes     string    `json:"observacoes,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the opaque bearer token issued at login.
type LoginResponse struct {
	Key string `json:"key"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"nome_completo"`
	Password string `json:"password"`
}

type PasswordChangeRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

type CreateGroupRequest struct {
	Name     string `json:"nome"`
	Password string `json:"senha"`
	Address  string `json:"endereco,omitempty"`
	City     string `json:"cidade,omitempty"`
	State    string `json:"estado,omitempty"`
	ZipCode  string `json:"cep,omitempty"`
	Phone    string `json:"telefone,omitempty"`
	Capacity int    `json:"capacidade,omitempty"`
}

type JoinWithCodeRequest struct {
	AccessCode string `json:"codigo_acesso"`
}

type AccessCodeResponse struct {
	AccessCode string `json:"codigo_acesso"`
}

type RemoveMemberRequest struct {
	UserID int `json:"user_id"`
}

// Detail is the generic single-message body Django REST endpoints answer with.
type Detail struct {
	Detail string `json:"detail"`
}
