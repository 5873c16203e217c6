package forms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func validElderForm() ElderForm {
	return ElderForm{
		FullName:   "Maria da Silva",
		BirthDay:   "15",
		BirthMonth: "03",
		BirthYear:  "1940",
		CPF:        "12345678901",
		SUSCard:    "898001160660000",
	}
}

func TestValidLoginFormPasses(t *testing.T) {
	is := is.New(t)
	is.NoErr(Validate(LoginForm{Email: "maria@example.com", Password: "segredo1"}))
}

func TestLoginFormRejectsBadEmail(t *testing.T) {
	is := is.New(t)

	err := Validate(LoginForm{Email: "not-an-email", Password: "segredo1"})

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "e-mail must be a valid e-mail address")
}

func TestShortPasswordIsRejected(t *testing.T) {
	is := is.New(t)

	err := Validate(LoginForm{Email: "maria@example.com", Password: "abc"})

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "password must be at least 6 characters")
}

func TestPasswordConfirmationMustMatch(t *testing.T) {
	is := is.New(t)

	err := Validate(RegisterForm{
		FullName:        "Maria",
		Email:           "maria@example.com",
		Password:        "segredo1",
		PasswordConfirm: "segredo2",
	})

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "passwords do not match")
}

func TestImpossibleBirthDateIsRejected(t *testing.T) {
	is := is.New(t)

	f := validElderForm()
	f.BirthDay = "31"
	f.BirthMonth = "02"

	err := Validate(f)

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "birth date is not a valid calendar date")
}

func TestLeapDayIsAccepted(t *testing.T) {
	is := is.New(t)

	f := validElderForm()
	f.BirthDay = "29"
	f.BirthMonth = "02"
	f.BirthYear = "1940"

	is.NoErr(Validate(f))
}

func TestElderFormRequiresHealthPlanNameWhenFlagged(t *testing.T) {
	is := is.New(t)

	f := validElderForm()
	f.HasHealthPlan = true
	f.HealthPlan = ""

	err := Validate(f)

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "health plan is required")
}

func TestElderPayloadFormatsTheBirthDate(t *testing.T) {
	is := is.New(t)

	f := validElderForm()
	f.BirthDay = "5"
	f.BirthMonth = "3"

	is.Equal(f.Payload().BirthDate, "1940-03-05")
}

func TestGroupFormValidatesCEPAndPhone(t *testing.T) {
	is := is.New(t)

	f := GroupForm{
		Name:     "Lar Recanto",
		Password: "segredo1",
		Address:  "Rua das Flores, 10",
		City:     "Curitiba",
		State:    "PR",
		ZipCode:  "80000-000",
		Phone:    "(41) 99999-8888",
		Capacity: "20",
	}
	is.NoErr(Validate(f))

	f.ZipCode = "800"
	err := Validate(f)
	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "CEP must look like 00000-000")

	f.ZipCode = "80000000"
	f.Phone = "123"
	err = Validate(f)
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "phone is not a valid phone number")
}

func TestPrescriptionFormRequiresAWeekday(t *testing.T) {
	is := is.New(t)

	f := PrescriptionForm{
		ElderID:       1,
		MedicationID:  2,
		ScheduledTime: "08:30",
		Dosage:        "1 comprimido",
	}

	err := Validate(f)

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "select at least one weekday")

	f.Weekdays[1] = true
	is.NoErr(Validate(f))
}

func TestScheduledTimeMustBeAClockTime(t *testing.T) {
	is := is.New(t)

	f := PrescriptionForm{
		ElderID:       1,
		MedicationID:  2,
		ScheduledTime: "25:99",
		Dosage:        "1 comprimido",
	}
	f.Weekdays[0] = true

	err := Validate(f)

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "scheduled time must be a time like 08:30")
}

func TestAdministrationFormRequiresNotesOnRefusal(t *testing.T) {
	is := is.New(t)

	is.NoErr(Validate(AdministrationForm{Status: "administrado"}))
	is.NoErr(Validate(AdministrationForm{Status: "pulado"}))

	err := Validate(AdministrationForm{Status: "recusado"})

	var ve *ValidationError
	is.True(errors.As(err, &ve))
	is.Equal(ve.Message, "notes is required")

	is.NoErr(Validate(AdministrationForm{Status: "recusado", Notes: "estava dormindo"}))
}

func TestSubmitterBlocksASecondSubmitWhileInFlight(t *testing.T) {
	is := is.New(t)

	var s Submitter
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	is.True(s.InFlight())

	err := s.Do(context.Background(), func(ctx context.Context) error { return nil })
	is.True(errors.Is(err, ErrSubmitInFlight))

	close(release)
	wg.Wait()

	// and the gate reopens afterwards
	is.True(!s.InFlight())
	is.NoErr(s.Do(context.Background(), func(ctx context.Context) error { return nil }))
}
