package models

import "github.com/google/uuid"

// ensureID assigns a random identifier when the caller has not set one. IDs are
// generated in Go so the same models work against sqlite in tests.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model in dependency order.
func All() []any {
	return []any{
		&Store{},
		&Product{},
		&ProductVariant{},
		&PromoCode{},
		&Order{},
		&OrderItem{},
		&PromoRedemption{},
		&Subscriber{},
	}
}
