package model

// MaxMessageLength bounds the body of room and private messages. Longer
// bodies are dropped by the router rather than truncated.
const MaxMessageLength = 2000
