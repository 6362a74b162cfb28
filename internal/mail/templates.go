package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Template names.
const (
	TemplateReservation = "reservation_confirmation"
	TemplateDeletion    = "data_deletion_confirmation"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"delivery": deliveryLabel,
	"photos":   photoLabel,
	"euro":     euro,
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
)

// ReservationData fills the confirmation email.
type ReservationData struct {
	ReservationID  string
	Email          string
	FirstName      string
	LastName       string
	MagazineTitle  string
	IssueNumber    string
	Quantity       int
	PriceCents     int
	DeliveryMethod string
	PickupLocation string
	Street         string
	HouseNumber    string
	PostalCode     string
	City           string
	Country        string
	OrderPhotos    bool
	PhotoPackage   string
	ChildName      string
	ChildGroup     string
	Notes          string
}

// DeletionData fills the erasure confirmation email.
type DeletionData struct {
	Email        string
	FirstName    string
	Reservations int64
	Consents     int64
}

func deliveryLabel(method string) string {
	if method == "shipping" {
		return "Versand"
	}
	return "Abholung"
}

func photoLabel(pkg string) string {
	switch pkg {
	case "basis":
		return "Basis-Paket"
	case "standard":
		return "Standard-Paket"
	case "premium":
		return "Premium-Paket"
	}
	return pkg
}

// euro formats cents as "12,50 €".
func euro(cents int) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

func render(name, to, subject string, data any) (Message, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, err
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Text: text.String(), HTML: html.String(), Template: name}, nil
}

// RenderReservation renders the reservation confirmation.
func RenderReservation(d ReservationData) (Message, error) {
	return render(TemplateReservation, d.Email, "Ihre Reservierung: "+d.MagazineTitle, d)
}

// RenderDeletion renders the confirmation that a user's data was erased.
func RenderDeletion(d DeletionData) (Message, error) {
	return render(TemplateDeletion, d.Email, "Bestätigung: Ihre Daten wurden gelöscht", d)
}
