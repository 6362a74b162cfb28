package model

import "time"

// User is a parent identified by email address.  A user row is created on
// the first reservation and updated with the latest contact details on
// every following one.
type User struct {
    ID        string    // users.id
    Email     string    // users.email (lower-cased)
    FirstName string    // users.first_name
    LastName  string    // users.last_name
    Phone     string    // users.phone
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
