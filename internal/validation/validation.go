// Package validation checks the JSON bodies of the public endpoints and
// reports problems as a list of field/message pairs with German messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/kita-magazine-reservation/internal/model"
)

// DefaultCountry is used when a shipping address has no country.
const DefaultCountry = "Deutschland"

// Photo packages offered with a reservation.
var PhotoPackages = []string{"basis", "standard", "premium"}

// FieldError describes one invalid input field.  Field uses the JSON
// path of the value, e.g. "shipping_address.postal_code".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var phonePattern = regexp.MustCompile(`^[0-9 +\-/()]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// messages maps a field path to its message.  Fields not listed fall back
// to a message derived from the failing tag.
var messages = map[string]string{
	"first_name":                    "Vorname muss zwischen 2 und 50 Zeichen lang sein",
	"last_name":                     "Nachname muss zwischen 2 und 50 Zeichen lang sein",
	"email":                         "Bitte geben Sie eine gültige E-Mail-Adresse ein",
	"phone":                         "Bitte geben Sie eine gültige Telefonnummer ein",
	"magazine_id":                   "Ungültige Magazin-ID",
	"quantity":                      "Anzahl muss zwischen 1 und 5 liegen",
	"delivery_method":               "Bitte wählen Sie Abholung oder Versand",
	"pickup_location":               "Bitte wählen Sie einen Abholort",
	"shipping_address.street":       "Straße ist erforderlich",
	"shipping_address.house_number": "Hausnummer ist erforderlich",
	"shipping_address.postal_code":  "Postleitzahl muss aus 5 Ziffern bestehen",
	"shipping_address.city":         "Stadt ist erforderlich",
	"shipping_address.country":      "Land darf höchstens 100 Zeichen lang sein",
	"photo_package":                 "Bitte wählen Sie ein Fotopaket (basis, standard oder premium)",
	"child_name":                    "Name des Kindes darf höchstens 100 Zeichen lang sein",
	"child_group":                   "Gruppe darf höchstens 50 Zeichen lang sein",
	"notes":                         "Anmerkungen dürfen höchstens 500 Zeichen lang sein",
	"consent.essential":             "Die Zustimmung zur Datenverarbeitung ist erforderlich",
	"consent_type":                  "Unbekannte Einwilligungsart",
	"confirm":                       "Die Löschung muss ausdrücklich bestätigt werden",
}

func messageFor(field, tag string) string {
	if m, ok := messages[field]; ok {
		return m
	}
	switch tag {
	case "required":
		return "Dieses Feld ist erforderlich"
	case "max":
		return "Eingabe ist zu lang"
	case "min":
		return "Eingabe ist zu kurz"
	}
	return "Ungültiger Wert"
}

// structErrors runs the tag rules on s and converts the failures.
func structErrors(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: "Ungültige Eingabedaten"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out = append(out, FieldError{Field: field, Message: messageFor(field, fe.Tag())})
	}
	return out
}

// fieldPath drops the leading struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func add(errs []FieldError, field string) []FieldError {
	for _, e := range errs {
		if e.Field == field {
			return errs
		}
	}
	return append(errs, FieldError{Field: field, Message: messageFor(field, "required")})
}

// ShippingAddress is the postal address for the shipping delivery method.
type ShippingAddress struct {
	Street      string `json:"street" validate:"max=200"`
	HouseNumber string `json:"house_number" validate:"max=20"`
	PostalCode  string `json:"postal_code" validate:"omitempty,len=5,numeric"`
	City        string `json:"city" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
}

// ConsentFlags carries the consent checkboxes of the reservation form.
type ConsentFlags struct {
	Essential  bool `json:"essential"`
	Functional bool `json:"functional"`
	Analytics  bool `json:"analytics"`
	Marketing  bool `json:"marketing"`
}

// Granted returns the decision for one purpose.
func (c ConsentFlags) Granted(consentType string) bool {
	switch consentType {
	case model.ConsentEssential:
		return c.Essential
	case model.ConsentFunctional:
		return c.Functional
	case model.ConsentAnalytics:
		return c.Analytics
	case model.ConsentMarketing:
		return c.Marketing
	}
	return false
}

// ReservationRequest is the body of POST /api/reservations.
type ReservationRequest struct {
	FirstName       string          `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string          `json:"last_name" validate:"required,min=2,max=50"`
	Email           string          `json:"email" validate:"required,email,max=254"`
	Phone           string          `json:"phone" validate:"omitempty,min=6,max=30,phone"`
	MagazineID      string          `json:"magazine_id" validate:"required,uuid"`
	Quantity        int             `json:"quantity" validate:"min=1,max=5"`
	DeliveryMethod  string          `json:"delivery_method" validate:"required,oneof=pickup shipping"`
	PickupLocation  string          `json:"pickup_location" validate:"max=200"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	OrderPhotos     bool            `json:"order_photos"`
	PhotoPackage    string          `json:"photo_package" validate:"omitempty,oneof=basis standard premium"`
	ChildName       string          `json:"child_name" validate:"max=100"`
	ChildGroup      string          `json:"child_group" validate:"max=50"`
	Notes           string          `json:"notes" validate:"max=500"`
	Consent         ConsentFlags    `json:"consent"`
}

// Normalize trims all text fields, lower-cases the email and fills the
// default country for shipping.
func (r *ReservationRequest) Normalize() {
	for _, p := range []*string{&r.FirstName, &r.LastName, &r.Phone, &r.MagazineID, &r.DeliveryMethod,
		&r.PickupLocation, &r.PhotoPackage, &r.ChildName, &r.ChildGroup, &r.Notes,
		&r.ShippingAddress.Street, &r.ShippingAddress.HouseNumber, &r.ShippingAddress.PostalCode,
		&r.ShippingAddress.City, &r.ShippingAddress.Country} {
		*p = strings.TrimSpace(*p)
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.DeliveryMethod == model.DeliveryShipping && r.ShippingAddress.Country == "" {
		r.ShippingAddress.Country = DefaultCountry
	}
}

// ValidateReservation normalizes r and returns all problems found.  A nil
// result means the request is valid.
func ValidateReservation(r *ReservationRequest) []FieldError {
	r.Normalize()
	errs := structErrors(r)
	switch r.DeliveryMethod {
	case model.DeliveryPickup:
		if r.PickupLocation == "" {
			errs = add(errs, "pickup_location")
		}
	case model.DeliveryShipping:
		a := r.ShippingAddress
		if a.Street == "" {
			errs = add(errs, "shipping_address.street")
		}
		if a.HouseNumber == "" {
			errs = add(errs, "shipping_address.house_number")
		}
		if a.PostalCode == "" {
			errs = add(errs, "shipping_address.postal_code")
		}
		if a.City == "" {
			errs = add(errs, "shipping_address.city")
		}
	}
	if r.OrderPhotos && r.PhotoPackage == "" {
		errs = add(errs, "photo_package")
	}
	if !r.Consent.Essential {
		errs = add(errs, "consent.essential")
	}
	return errs
}

// ConsentRequest is the body of POST and DELETE /api/gdpr/consent.
// Granted defaults to true when omitted on POST.
type ConsentRequest struct {
	Email       string `json:"email" query:"email" validate:"required,email,max=254"`
	ConsentType string `json:"consent_type" query:"consent_type" validate:"required,oneof=essential functional analytics marketing"`
	Granted     *bool  `json:"granted"`
}

// ValidateConsent checks email and purpose of a consent request.
func ValidateConsent(r *ConsentRequest) []FieldError {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.ConsentType = strings.TrimSpace(r.ConsentType)
	return structErrors(r)
}

// EmailRequest is the body of the export and deletion-check endpoints.
type EmailRequest struct {
	Email string `json:"email" query:"email" validate:"required,email,max=254"`
}

// ValidateEmail checks a request that only identifies a user.
func ValidateEmail(r *EmailRequest) []FieldError {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return structErrors(r)
}

// DeleteRequest is the body of DELETE /api/gdpr/delete-data.
type DeleteRequest struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Confirm bool   `json:"confirm"`
}

// ValidateDelete requires an email and an explicit confirmation.
func ValidateDelete(r *DeleteRequest) []FieldError {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	errs := structErrors(r)
	if !r.Confirm {
		errs = add(errs, "confirm")
	}
	return errs
}
