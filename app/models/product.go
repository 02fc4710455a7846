package models

import (
	"time"
)

// Product represents a catalogue entry identified by its code
type Product struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
	Sector      string `json:"setor"`
}

// InventoryItem holds the quantity on hand for a product code.
// It may outlive the Product it was counted for.
type InventoryItem struct {
	Code        string  `json:"codigo"`
	Description string  `json:"descricao"`
	Sector      string  `json:"setor"`
	Total       float64 `json:"total"`
}

// Movement types (informational labels)
const (
	MovementTypeIn  = "Entrada"
	MovementTypeOut = "Saída"
)

// InventoryMovement is an append-only audit record of a stock change
type InventoryMovement struct {
	Code        string    `json:"codigo"`
	Description string    `json:"descricao"`
	Sector      string    `json:"setor"`
	Quantity    float64   `json:"quantidade"` // Positive for additions, negative for removals
	Type        string    `json:"tipo,omitempty"`
	Total       float64   `json:"total"` // Resulting item total after the change
	Timestamp   time.Time `json:"timestamp"`
}

// DefaultSectors are seeded on first run
var DefaultSectors = []string{"Açougue", "Hortifruti", "Outros"}
