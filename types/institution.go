package types

import "time"

// AppointmentStatus describes how the director holds the position.
type AppointmentStatus string

// Supported appointment statuses.
const (
	// AppointmentInCharge means the director is covering the position temporarily.
	AppointmentInCharge AppointmentStatus = "Encargado"

	// AppointmentDesignated means the director was formally appointed.
	AppointmentDesignated AppointmentStatus = "Designado"
)

// ClassroomStatus describes whether the director also teaches a classroom.
type ClassroomStatus string

// Supported classroom statuses.
const (
	// ClassroomAssigned means the director is in charge of a classroom.
	ClassroomAssigned ClassroomStatus = "Con aula a cargo"

	// ClassroomUnassigned means the director has no classroom.
	ClassroomUnassigned ClassroomStatus = "Sin aula a cargo"
)

// Institution represents one registered school and its director.
type Institution struct {
	// ID is the unique identifier assigned by the store.
	ID int `json:"id" db:"id"`

	// Name is the official name of the educational institution.
	Name string `json:"name" db:"name" validate:"required"`

	// DirectorName is the full name of the institution's director.
	DirectorName string `json:"director_name" db:"director_name" validate:"required"`

	// NationalID is the director's national identity number (DNI).
	// It is exactly eight digits and unique across all institutions.
	NationalID string `json:"national_id" db:"national_id" validate:"required,len=8,number"`

	// Appointment is the director's appointment status.
	Appointment AppointmentStatus `json:"appointment" db:"appointment" validate:"required,oneof=Encargado Designado"`

	// Classroom indicates whether the director is in charge of a classroom.
	Classroom ClassroomStatus `json:"classroom" db:"classroom" validate:"required,oneof='Con aula a cargo' 'Sin aula a cargo'"`

	// Phone is the nine digit contact phone number.
	Phone string `json:"phone" db:"phone" validate:"required,len=9,number"`

	// Email is the contact email address.
	Email string `json:"email" db:"email" validate:"required,email"`

	// RegisteredAt is the timestamp when the institution was registered.
	// It is assigned by the store and never changes.
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}
