package sessionapi

// EntryResponse is the representation of one session value.
type EntryResponse struct {
	// Entry is the public entry name (authorization-code, session-id).
	Entry string `json:"entry"`

	// Key is the fixed store key the value lives under.
	Key string `json:"key"`

	// Value is the current value; null when unset or cleared.
	Value *string `json:"value"`
}

// ListResponse is returned by GET /session/.
type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// SetRequest is the body accepted by PUT /session/{entry}.
// A missing or null value stores null.
type SetRequest struct {
	Value *string `json:"value"`
}
