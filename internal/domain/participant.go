package domain

// Participant is the resolved identity of one connection. It is created at
// connect time and never changes for the lifetime of the connection.
//
// Anonymous participants carry a deterministic identity derived from the
// originating network address, so reconnects from the same address collapse to
// one identity for presence counting. That is an accepted approximation for
// presence only, not a security identity.
type Participant struct {
	IdentityID    string
	DisplayName   string
	Authenticated bool
}
