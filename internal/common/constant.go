package common

// AuthHeaderName is the HTTP header carrying the bearer access token.
const AuthHeaderName = "Authorization"

// AuthSchemePrefix is the expected prefix of the Authorization header value.
const AuthSchemePrefix = "Bearer "
