package models

// User mirrors an identity from the external provider. SecondaryExternalID
// supports linking a second provider account to the same user.
type User struct {
	Base
	ExternalID          string  `gorm:"size:191;not null;uniqueIndex" json:"externalId"`
	SecondaryExternalID *string `gorm:"size:191;uniqueIndex" json:"secondaryExternalId,omitempty"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	ImageURL            string  `json:"imageUrl"`
	DefaultFlockID      *string `gorm:"size:36" json:"defaultFlockId,omitempty"`
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	ExternalID string
	Name       string
	Email      string
	ImageURL   string
}
