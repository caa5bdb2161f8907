package domain

// Endpoint is one RPC address a client can fail over to.
// Position in a client's endpoint list defines priority (index 0 is primary).
type Endpoint struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url"  json:"url"`
}
