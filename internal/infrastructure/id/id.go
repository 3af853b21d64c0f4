package id

import "github.com/google/uuid"

// UUID issues random (v4) identifiers.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

func (UUID) NewID() string { return uuid.NewString() }
