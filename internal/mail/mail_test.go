package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kita-magazine-reservation/internal/config"
)

func TestRenderReservation_Pickup(t *testing.T) {
	msg, err := RenderReservation(ReservationData{
		ReservationID:  "r-1",
		Email:          "anna@example.de",
		FirstName:      "Anna",
		LastName:       "Muster",
		MagazineTitle:  "Frühlingsausgabe",
		IssueNumber:    "2026/1",
		Quantity:       2,
		PriceCents:     450,
		DeliveryMethod: "pickup",
		PickupLocation: "Kita Sonnenschein",
		OrderPhotos:    true,
		PhotoPackage:   "premium",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.de", msg.To)
	assert.Equal(t, TemplateReservation, msg.Template)
	assert.Contains(t, msg.Subject, "Frühlingsausgabe")
	assert.Contains(t, msg.Text, "Abholort:            Kita Sonnenschein")
	assert.Contains(t, msg.Text, "Premium-Paket")
	assert.Contains(t, msg.Text, "4,50 €")
	assert.NotContains(t, msg.Text, "Lieferadresse")
	assert.Contains(t, msg.HTML, "r-1")
}

func TestRenderReservation_ShippingEscapesHTML(t *testing.T) {
	msg, err := RenderReservation(ReservationData{
		Email:          "a@b.de",
		FirstName:      "<script>",
		DeliveryMethod: "shipping",
		Street:         "Hauptstraße",
		HouseNumber:    "1",
		PostalCode:     "10115",
		City:           "Berlin",
		Country:        "Deutschland",
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Hauptstraße 1, 10115 Berlin, Deutschland")
	assert.False(t, strings.Contains(msg.HTML, "<script>"))
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestRenderDeletion(t *testing.T) {
	msg, err := RenderDeletion(DeletionData{Email: "a@b.de", FirstName: "Anna", Reservations: 2, Consents: 4})
	require.NoError(t, err)
	assert.Equal(t, TemplateDeletion, msg.Template)
	assert.Contains(t, msg.Text, "Gelöschte Reservierungen: 2")
}

func TestNew_DisabledIsNoop(t *testing.T) {
	s, err := New(config.MailConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Send(context.Background(), Message{Template: TemplateReservation}), ErrDisabled)
}

func TestSMTPSender_Build(t *testing.T) {
	s, err := NewSMTPSender(config.MailConfig{Host: "smtp.example.de", Port: 587, From: "Kita <noreply@example.de>",
		ReplyTo: "team@example.de", TLS: "mandatory"})
	require.NoError(t, err)
	m, err := s.build(Message{To: "anna@example.de", Subject: "Test", Text: "Hallo", HTML: "<p>Hallo</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"<anna@example.de>"}, m.GetToString())

	_, err = s.build(Message{To: "not an address"})
	assert.Error(t, err)
}

func TestEuro(t *testing.T) {
	assert.Equal(t, "0,05 €", euro(5))
	assert.Equal(t, "12,50 €", euro(1250))
}
