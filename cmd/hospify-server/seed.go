package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospify/hospify/internal/domain/appointment"
	"github.com/hospify/hospify/internal/domain/identity"
	"github.com/hospify/hospify/internal/platform/apperr"
)

type seedUser struct {
	Name           string
	Email          string
	Phone          string
	Password       string
	Role           identity.Role
	Specialization string
	Department     string
	Age            int
	Gender         string
}

var seedUsers = []seedUser{
	{Name: "Admin User", Email: "admin@hospify.com", Phone: "+91 98765 43200", Password: "admin123", Role: identity.RoleAdmin},
	{Name: "Dr. Sharma", Email: "doctor@hospify.com", Phone: "+91 98765 43201", Password: "doctor123", Role: identity.RoleDoctor, Specialization: "Cardiologist", Department: "Cardiology"},
	{Name: "Dr. Patel", Email: "patel@hospify.com", Phone: "+91 98765 43202", Password: "doctor123", Role: identity.RoleDoctor, Specialization: "Dermatologist", Department: "Dermatology"},
	{Name: "Dr. Kumar", Email: "kumar@hospify.com", Phone: "+91 98765 43203", Password: "doctor123", Role: identity.RoleDoctor, Specialization: "Orthopedic Surgeon", Department: "Orthopedics"},
	{Name: "John Doe", Email: "patient@hospify.com", Phone: "+91 98765 43204", Password: "patient123", Role: identity.RolePatient, Age: 30, Gender: "male"},
	{Name: "Pharmacist Smith", Email: "pharma@hospify.com", Phone: "+91 98765 43205", Password: "pharma123", Role: identity.RolePharmacist},
}

// seedVisit books the demo patient with a seeded doctor, dayOffset days from
// today.
type seedVisit struct {
	DoctorEmail string
	DayOffset   int
	Time        string
}

var seedVisits = []seedVisit{
	{DoctorEmail: "doctor@hospify.com", DayOffset: 0, Time: "10:00"},
	{DoctorEmail: "doctor@hospify.com", DayOffset: 0, Time: "11:00"},
	{DoctorEmail: "patel@hospify.com", DayOffset: 1, Time: "14:00"},
}

const seedPatientEmail = "patient@hospify.com"

// seed creates the demo accounts. Existing accounts are left alone, and the
// sample appointments are only booked when the demo patient is new so that
// repeated runs do not pile up tokens.
func seed(ctx context.Context, a *app, logger zerolog.Logger) error {
	accounts := make(map[string]*identity.Account, len(seedUsers))
	patientCreated := false

	for _, u := range seedUsers {
		acct, created, err := ensureUser(ctx, a.identity, u)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		accounts[u.Email] = acct
		if created {
			logger.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("seeded account")
			if u.Email == seedPatientEmail {
				patientCreated = true
			}
		} else {
			logger.Info().Str("email", u.Email).Msg("account exists, skipping")
		}
	}

	if !patientCreated {
		return nil
	}

	patient, ok := accounts[seedPatientEmail].Profile.(*identity.PatientProfile)
	if !ok {
		return fmt.Errorf("seed patient has no patient profile")
	}

	today, err := time.Parse(appointment.DateLayout, a.appointments.Today())
	if err != nil {
		return err
	}

	for _, v := range seedVisits {
		doc, ok := accounts[v.DoctorEmail].Profile.(*identity.DoctorProfile)
		if !ok {
			return fmt.Errorf("seed doctor %s has no doctor profile", v.DoctorEmail)
		}
		appt, err := a.appointments.Book(ctx, patient.ID, appointment.BookInput{
			DoctorID: doc.ID,
			Date:     today.AddDate(0, 0, v.DayOffset).Format(appointment.DateLayout),
			Time:     v.Time,
		})
		if err != nil {
			return fmt.Errorf("seed appointment with %s: %w", v.DoctorEmail, err)
		}
		logger.Info().
			Str("doctor", v.DoctorEmail).
			Str("date", appt.Date).
			Int("token", appt.TokenNumber).
			Msg("seeded appointment")
	}
	return nil
}

// ensureUser creates u, or signs in as it when the email is already taken.
func ensureUser(ctx context.Context, svc *identity.Service, u seedUser) (*identity.Account, bool, error) {
	var (
		acct *identity.Account
		err  error
	)
	if u.Role == identity.RoleAdmin {
		acct, err = svc.CreateAdmin(ctx, u.Name, u.Email, u.Phone, u.Password)
	} else {
		var sess *identity.Session
		sess, err = svc.Register(ctx, u.signupInput())
		if sess != nil {
			acct = sess.Account
		}
	}
	if err == nil {
		return acct, true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return nil, false, err
	}

	sess, err := svc.Authenticate(ctx, u.Email, u.Password)
	if err != nil {
		return nil, false, fmt.Errorf("existing account: %w", err)
	}
	return sess.Account, false, nil
}

func (u seedUser) signupInput() identity.SignupInput {
	in := identity.SignupInput{
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Password:       u.Password,
		Role:           u.Role,
		Specialization: u.Specialization,
		Department:     u.Department,
	}
	if u.Age > 0 {
		age := u.Age
		in.Age = &age
	}
	if u.Gender != "" {
		gender := u.Gender
		in.Gender = &gender
	}
	return in
}
