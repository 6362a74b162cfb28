package validation

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPickup() ReservationRequest {
	return ReservationRequest{
		FirstName:      "Anna",
		LastName:       "Muster",
		Email:          gofakeit.Email(),
		Phone:          "+49 (030) 123-456",
		MagazineID:     uuid.NewString(),
		Quantity:       2,
		DeliveryMethod: "pickup",
		PickupLocation: "Kita Sonnenschein",
		Consent:        ConsentFlags{Essential: true},
	}
}

func fields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateReservation_Valid(t *testing.T) {
	req := validPickup()
	req.Email = "  Anna@Example.DE "
	assert.Empty(t, ValidateReservation(&req))
	assert.Equal(t, "anna@example.de", req.Email)
}

func TestValidateReservation_ShippingWithoutAddress(t *testing.T) {
	req := validPickup()
	req.DeliveryMethod = "shipping"
	req.PickupLocation = ""

	errs := ValidateReservation(&req)
	assert.ElementsMatch(t, []string{
		"shipping_address.street",
		"shipping_address.house_number",
		"shipping_address.postal_code",
		"shipping_address.city",
	}, fields(errs))
}

func TestValidateReservation_ShippingDefaultsCountry(t *testing.T) {
	req := validPickup()
	req.DeliveryMethod = "shipping"
	req.ShippingAddress = ShippingAddress{Street: "Hauptstraße", HouseNumber: "12a", PostalCode: "10115", City: "Berlin"}

	require.Empty(t, ValidateReservation(&req))
	assert.Equal(t, DefaultCountry, req.ShippingAddress.Country)
}

func TestValidateReservation_PostalCodeFormat(t *testing.T) {
	req := validPickup()
	req.DeliveryMethod = "shipping"
	req.ShippingAddress = ShippingAddress{Street: "Hauptstraße", HouseNumber: "1", PostalCode: "1011", City: "Berlin"}

	errs := ValidateReservation(&req)
	require.Len(t, errs, 1)
	assert.Equal(t, "shipping_address.postal_code", errs[0].Field)
	assert.Equal(t, "Postleitzahl muss aus 5 Ziffern bestehen", errs[0].Message)
}

func TestValidateReservation_PickupNeedsLocation(t *testing.T) {
	req := validPickup()
	req.PickupLocation = "   "
	assert.Equal(t, []string{"pickup_location"}, fields(ValidateReservation(&req)))
}

func TestValidateReservation_EssentialConsentRequired(t *testing.T) {
	req := validPickup()
	req.Consent = ConsentFlags{Marketing: true}

	errs := ValidateReservation(&req)
	require.Len(t, errs, 1)
	assert.Equal(t, "consent.essential", errs[0].Field)
}

func TestValidateReservation_FieldRules(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(r *ReservationRequest)
		field string
	}{
		{"short first name", func(r *ReservationRequest) { r.FirstName = "A" }, "first_name"},
		{"long last name", func(r *ReservationRequest) { r.LastName = strings.Repeat("x", 51) }, "last_name"},
		{"bad email", func(r *ReservationRequest) { r.Email = "not-an-email" }, "email"},
		{"letters in phone", func(r *ReservationRequest) { r.Phone = "call me maybe" }, "phone"},
		{"short phone", func(r *ReservationRequest) { r.Phone = "123" }, "phone"},
		{"magazine id", func(r *ReservationRequest) { r.MagazineID = "42" }, "magazine_id"},
		{"zero quantity", func(r *ReservationRequest) { r.Quantity = 0 }, "quantity"},
		{"six copies", func(r *ReservationRequest) { r.Quantity = 6 }, "quantity"},
		{"unknown delivery", func(r *ReservationRequest) { r.DeliveryMethod = "drone" }, "delivery_method"},
		{"photos without package", func(r *ReservationRequest) { r.OrderPhotos = true }, "photo_package"},
		{"unknown package", func(r *ReservationRequest) { r.OrderPhotos = true; r.PhotoPackage = "gold" }, "photo_package"},
		{"long notes", func(r *ReservationRequest) { r.Notes = strings.Repeat("ä", 501) }, "notes"},
		{"long child name", func(r *ReservationRequest) { r.ChildName = strings.Repeat("x", 101) }, "child_name"},
		{"long child group", func(r *ReservationRequest) { r.ChildGroup = strings.Repeat("x", 51) }, "child_group"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validPickup()
			tc.mut(&req)
			errs := ValidateReservation(&req)
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tc.field, errs[0].Field)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestValidateReservation_NotesCountRunes(t *testing.T) {
	req := validPickup()
	req.Notes = strings.Repeat("ü", 500)
	assert.Empty(t, ValidateReservation(&req))
}

func TestValidateConsent(t *testing.T) {
	ok := ConsentRequest{Email: gofakeit.Email(), ConsentType: "marketing"}
	assert.Empty(t, ValidateConsent(&ok))

	bad := ConsentRequest{Email: gofakeit.Email(), ConsentType: "tracking"}
	errs := ValidateConsent(&bad)
	require.Len(t, errs, 1)
	assert.Equal(t, "consent_type", errs[0].Field)
}

func TestValidateDelete_RequiresConfirm(t *testing.T) {
	req := DeleteRequest{Email: gofakeit.Email()}
	assert.Equal(t, []string{"confirm"}, fields(ValidateDelete(&req)))

	req.Confirm = true
	assert.Empty(t, ValidateDelete(&req))
}

func TestConsentFlags_Granted(t *testing.T) {
	c := ConsentFlags{Essential: true, Analytics: true}
	assert.True(t, c.Granted("essential"))
	assert.True(t, c.Granted("analytics"))
	assert.False(t, c.Granted("marketing"))
	assert.False(t, c.Granted("unknown"))
}
