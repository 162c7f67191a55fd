package models

// Persisted keys. Values are decimal strings except the link registry, which
// is a JSON document.
const (
	KeyPinHash       = "vault_pin_hash"
	KeyWrongAttempts = "vault_wrong_attempts"
	KeyLockoutUntil  = "vault_lockout_until"
	KeyDriveContent  = "vault_drive_content"
)

// Mutation is a batch of writes applied atomically by a key-value store.
// Deletes of absent keys are not errors.
type Mutation struct {
	Set    map[string]string
	Delete []string
}

// NewMutation returns an empty mutation
func NewMutation() *Mutation {
	return &Mutation{Set: make(map[string]string)}
}

// Put schedules key=value
func (m *Mutation) Put(key, value string) *Mutation {
	m.Set[key] = value
	return m
}

// Remove schedules deletion of keys
func (m *Mutation) Remove(keys ...string) *Mutation {
	m.Delete = append(m.Delete, keys...)
	return m
}

// Empty reports whether the mutation does nothing
func (m *Mutation) Empty() bool {
	return len(m.Set) == 0 && len(m.Delete) == 0
}
