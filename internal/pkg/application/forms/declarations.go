package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/e-doso/edoso-client/pkg/types"
)

// One struct per screen form. Field order is the order rules are checked in,
// and every text input is held as the raw string the user typed.

type LoginForm struct {
	Email    string `validate:"required,email" label:"e-mail"`
	Password string `validate:"required,min=6" label:"password"`
}

type RegisterForm struct {
	FullName        string `validate:"required" label:"full name"`
	Email           string `validate:"required,email" label:"e-mail"`
	Password        string `validate:"required,min=6" label:"password"`
	PasswordConfirm string `validate:"required,eqfield=Password" label:"password confirmation"`
}

type ProfileForm struct {
	FullName string `validate:"required" label:"full name"`
	Email    string `validate:"required,email" label:"e-mail"`
}

type PasswordChangeForm struct {
	OldPassword  string `validate:"required" label:"current password"`
	NewPassword1 string `validate:"required,min=6" label:"new password"`
	NewPassword2 string `validate:"required,eqfield=NewPassword1" label:"new password confirmation"`
}

type GroupForm struct {
	Name     string `validate:"required" label:"group name"`
	Password string `validate:"required,min=6" label:"group password"`
	Address  string `validate:"required" label:"address"`
	City     string `validate:"required" label:"city"`
	State    string `validate:"required" label:"state"`
	ZipCode  string `validate:"required,cep" label:"CEP"`
	Phone    string `validate:"required,brphone" label:"phone"`
	Capacity string `validate:"required,posint" label:"capacity"`
}

func (f GroupForm) Payload() types.CreateGroupRequest {
	capacity, _ := strconv.Atoi(strings.TrimSpace(f.Capacity))
	return types.CreateGroupRequest{
		Name:     strings.TrimSpace(f.Name),
		Password: f.Password,
		Address:  strings.TrimSpace(f.Address),
		City:     strings.TrimSpace(f.City),
		State:    strings.TrimSpace(f.State),
		ZipCode:  strings.TrimSpace(f.ZipCode),
		Phone:    strings.TrimSpace(f.Phone),
		Capacity: capacity,
	}
}

type JoinGroupForm struct {
	AccessCode string `validate:"required,uuid4" label:"access code"`
}

type ElderForm struct {
	FullName   string `validate:"required" label:"full name"`
	BirthDay   string `validate:"required,numeric" label:"birth day"`
	BirthMonth string `validate:"required,numeric" label:"birth month"`
	BirthYear  string `validate:"required,numeric,len=4" label:"birth year"`
	Weight     string `validate:"omitempty,numeric" label:"weight"`
	Gender     string `validate:"omitempty,oneof=M F O" label:"gender"`
	CPF        string `validate:"required,numeric,len=11" label:"CPF"`
	RG         string `validate:"omitempty,numeric" label:"RG"`
	SUSCard    string `validate:"required" label:"SUS card"`

	HasHealthPlan        bool
	HealthPlan           string `validate:"required_if=HasHealthPlan true" label:"health plan"`
	HealthPlanCardNumber string `label:"health plan card number"`

	Diseases   string `label:"diseases"`
	Conditions string `label:"conditions"`
}

func (f ElderForm) Payload() types.Elder {
	day, _ := strconv.Atoi(strings.TrimSpace(f.BirthDay))
	month, _ := strconv.Atoi(strings.TrimSpace(f.BirthMonth))
	year, _ := strconv.Atoi(strings.TrimSpace(f.BirthYear))
	weight, _ := strconv.ParseFloat(strings.TrimSpace(f.Weight), 64)

	e := types.Elder{
		FullName:      strings.TrimSpace(f.FullName),
		BirthDate:     fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		WeightKg:      weight,
		Gender:        f.Gender,
		CPF:           f.CPF,
		RG:            f.RG,
		SUSCard:       f.SUSCard,
		HasHealthPlan: f.HasHealthPlan,
		Diseases:      f.Diseases,
		Conditions:    f.Conditions,
	}

	if f.HasHealthPlan {
		e.HealthPlan = f.HealthPlan
		e.HealthPlanCardNumber = f.HealthPlanCardNumber
	}

	return e
}

type MedicationForm struct {
	Name             string `validate:"required" label:"medication name"`
	ActiveIngredient string `label:"active ingredient"`
	DoseValue        string `validate:"omitempty,numeric" label:"dose value"`
	DoseUnit         string `label:"dose unit"`
	Stock            string `validate:"required,numeric" label:"stock quantity"`
}

func (f MedicationForm) Payload() types.Medication {
	doseValue, _ := strconv.ParseFloat(strings.TrimSpace(f.DoseValue), 64)
	stock, _ := strconv.Atoi(strings.TrimSpace(f.Stock))

	return types.Medication{
		Name:             strings.TrimSpace(f.Name),
		ActiveIngredient: strings.TrimSpace(f.ActiveIngredient),
		DoseValue:        doseValue,
		DoseUnit:         strings.TrimSpace(f.DoseUnit),
		StockQuantity:    stock,
	}
}

type PrescriptionForm struct {
	ElderID       int    `validate:"required,gt=0" label:"elder"`
	MedicationID  int    `validate:"required,gt=0" label:"medication"`
	ScheduledTime string `validate:"required,hhmm" label:"scheduled time"`
	Dosage        string `validate:"required" label:"dosage"`
	Instructions  string `label:"instructions"`
	// Sunday first, matching the weekday flags on the wire
	Weekdays [7]bool
	Active   bool
}

func (f PrescriptionForm) Payload() types.Prescription {
	return types.Prescription{
		ElderID:       f.ElderID,
		MedicationID:  f.MedicationID,
		ScheduledTime: f.ScheduledTime,
		Dosage:        strings.TrimSpace(f.Dosage),
		Instructions:  strings.TrimSpace(f.Instructions),
		Active:        f.Active,
		Sunday:        f.Weekdays[time.Sunday],
		Monday:        f.Weekdays[time.Monday],
		Tuesday:       f.Weekdays[time.Tuesday],
		Wednesday:     f.Weekdays[time.Wednesday],
		Thursday:      f.Weekdays[time.Thursday],
		Friday:        f.Weekdays[time.Friday],
		Saturday:      f.Weekdays[time.Saturday],
	}
}

type AdministrationForm struct {
	Status string `validate:"required,oneof=administrado recusado pulado" label:"status"`
	Notes  string `validate:"required_if=Status recusado" label:"notes"`
}
