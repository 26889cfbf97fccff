package domain

import "time"

// Settings holds the site theming shown on every public page.
type Settings struct {
	PrimaryColor string    `json:"primaryColor" validate:"omitempty,hexcolor"`
	Logo         string    `json:"logo" validate:"omitempty,url"`
	WhatsApp     string    `json:"whatsapp" validate:"omitempty,whatsapp"`
	Instagram    string    `json:"instagram" validate:"omitempty,url"`
	UpdatedAt    time.Time `json:"updated_at"`
}
