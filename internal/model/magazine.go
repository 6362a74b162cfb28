package model

import "time"

// Magazine represents a printed issue of the kindergarten magazine that
// parents can reserve.  This struct corresponds to a row in the
// `magazines` table.
//
// Fields:
//  ID              – primary key (UUID).
//  Title           – display title of the issue.
//  IssueNumber     – human readable issue label, e.g. "2026/1".
//  AvailableCopies – copies not yet reserved; never negative.
//  TotalCopies     – print run of the issue.
//  IsActive        – inactive issues are hidden and cannot be reserved.
type Magazine struct {
    ID              string    // magazines.id
    Title           string    // magazines.title
    IssueNumber     string    // magazines.issue_number
    Description     string    // magazines.description
    CoverImageURL   string    // magazines.cover_image_url
    PriceCents      int       // magazines.price_cents
    TotalCopies     int       // magazines.total_copies
    AvailableCopies int       // magazines.available_copies
    PublicationDate time.Time // magazines.publication_date
    IsActive        bool      // magazines.is_active
    CreatedAt       time.Time // magazines.created_at
    UpdatedAt       time.Time // magazines.updated_at
}
