package log

const (
	// Connection
	FieldClientID   = "client_id"
	FieldChannelID  = "channel_id"
	FieldIdentityID = "identity_id"
	FieldRemoteAddr = "remote_addr"

	// Service
	FieldService = "service"

	// Store
	FieldKey   = "key"
	FieldCount = "count"
)
