package model

import "time"

// Reservation statuses.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusCancelled = "cancelled"
    StatusCompleted = "completed"
)

// Delivery methods.
const (
    DeliveryPickup   = "pickup"
    DeliveryShipping = "shipping"
)

// Reservation records a user's request to receive Quantity copies of a
// magazine issue.  Shipping fields are only populated for the shipping
// delivery method, PickupLocation only for pickup.
type Reservation struct {
    ID                  string    // reservations.id
    UserID              string    // reservations.user_id
    MagazineID          string    // reservations.magazine_id
    Quantity            int       // reservations.quantity (1..5)
    Status              string    // reservations.status
    DeliveryMethod      string    // reservations.delivery_method
    PickupLocation      string    // reservations.pickup_location
    ShippingStreet      string    // reservations.shipping_street
    ShippingHouseNumber string    // reservations.shipping_house_number
    ShippingPostalCode  string    // reservations.shipping_postal_code
    ShippingCity        string    // reservations.shipping_city
    ShippingCountry     string    // reservations.shipping_country
    OrderPhotos         bool      // reservations.order_photos
    PhotoPackage        string    // reservations.photo_package
    ChildName           string    // reservations.child_name
    ChildGroup          string    // reservations.child_group
    Notes               string    // reservations.notes
    CreatedAt           time.Time // reservations.created_at
    UpdatedAt           time.Time // reservations.updated_at
}

// IsActive reports whether the reservation still binds stock and therefore
// blocks deletion of the user's data.
func (r Reservation) IsActive() bool {
    return r.Status == StatusPending || r.Status == StatusConfirmed
}

// ValidStatus reports whether s is one of the four reservation statuses.
func ValidStatus(s string) bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
        return true
    }
    return false
}

// CanTransition reports whether a reservation may move from one status to
// another.  Cancelled and completed are terminal.
func CanTransition(from, to string) bool {
    if !ValidStatus(to) || from == to {
        return false
    }
    switch from {
    case StatusPending:
        return true
    case StatusConfirmed:
        return to == StatusCancelled || to == StatusCompleted
    }
    return false
}
