package entity

import "time"

// Site representa una obra (chantier) donde se consumen materiales.
type Site struct {
	ID        string
	AccountID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
