package domain

// Call is an alert record identifying a token, a caller, and an alert
// time. It is created once by an upstream ingester and is read-only to
// the core.
type Call struct {
	ID          string // opaque stable key
	Caller      string // display name
	Mint        string // token address
	Chain       string
	AlertTimeMs int64
	CreatedAt   int64 // ingestion timestamp, informational only
}
