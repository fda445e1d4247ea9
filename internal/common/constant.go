package common

// AuthorizationHeader carries the session token as "Bearer <token>".
const (
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"
)
