package Iservices

import "voice-connector/internal/domain/entities"

// ISessionStore maps call identifiers to live session records. Each key
// has exactly one owning relay, so no update API beyond the returned
// pointer is needed.
type ISessionStore interface {
	GetOrCreate(callSid string) *entities.Session
	Delete(callSid string)
}
