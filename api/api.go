// Package api defines the broker's request/response envelope and the
// registry of API keys this package implements. Each API's own
// request/response schema lives in its own subpackage (Metadata, Produce,
// ApiVersions, CreateTopics) and is encoded/decoded against the codec
// package directly: each request type implements Body, and the envelope
// encodes whichever body it carries through that interface, not through a
// generic reflection walk.
package api

// API keys this client speaks. The broker's protocol defines many more;
// consumer-group coordination, offset management, and fetch are out of
// scope for this client (see the package doc at the module root).
const (
	Produce      int16 = 0
	Metadata     int16 = 3
	ApiVersions  int16 = 18
	CreateTopics int16 = 19
)

// Keys names the API keys this client uses, for logging.
var Keys = map[int16]string{
	Produce:      "Produce",
	Metadata:     "Metadata",
	ApiVersions:  "ApiVersions",
	CreateTopics: "CreateTopics",
}
