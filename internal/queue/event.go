// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/kita-magazine-reservation/internal/mail"

// ReservationCreatedQueue is the durable queue carrying new reservations to
// the mail consumer.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation was committed.
// It carries everything the confirmation email needs so the consumer never
// queries the database.
type ReservationCreatedEvent struct {
    ReservationID  string `json:"reservation_id"`
    UserID         string `json:"user_id"`
    Email          string `json:"email"`
    FirstName      string `json:"first_name"`
    LastName       string `json:"last_name"`
    MagazineID     string `json:"magazine_id"`
    MagazineTitle  string `json:"magazine_title"`
    IssueNumber    string `json:"issue_number"`
    PriceCents     int    `json:"price_cents"`
    Quantity       int    `json:"quantity"`
    DeliveryMethod string `json:"delivery_method"`
    PickupLocation string `json:"pickup_location,omitempty"`
    Street         string `json:"street,omitempty"`
    HouseNumber    string `json:"house_number,omitempty"`
    PostalCode     string `json:"postal_code,omitempty"`
    City           string `json:"city,omitempty"`
    Country        string `json:"country,omitempty"`
    OrderPhotos    bool   `json:"order_photos"`
    PhotoPackage   string `json:"photo_package,omitempty"`
    ChildName      string `json:"child_name,omitempty"`
    ChildGroup     string `json:"child_group,omitempty"`
    Notes          string `json:"notes,omitempty"`
    CreatedAt      string `json:"created_at"`
}

// MailData maps the event onto the confirmation template.
func (ev ReservationCreatedEvent) MailData() mail.ReservationData {
    return mail.ReservationData{
        ReservationID:  ev.ReservationID,
        Email:          ev.Email,
        FirstName:      ev.FirstName,
        LastName:       ev.LastName,
        MagazineTitle:  ev.MagazineTitle,
        IssueNumber:    ev.IssueNumber,
        Quantity:       ev.Quantity,
        PriceCents:     ev.PriceCents,
        DeliveryMethod: ev.DeliveryMethod,
        PickupLocation: ev.PickupLocation,
        Street:         ev.Street,
        HouseNumber:    ev.HouseNumber,
        PostalCode:     ev.PostalCode,
        City:           ev.City,
        Country:        ev.Country,
        OrderPhotos:    ev.OrderPhotos,
        PhotoPackage:   ev.PhotoPackage,
        ChildName:      ev.ChildName,
        ChildGroup:     ev.ChildGroup,
        Notes:          ev.Notes,
    }
}
