// Package brand provides centralized identity constants so forks can
// rename the product by editing brand.json.
package brand

import (
	_ "embed"
	"encoding/json"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds the product identity.
type Brand struct {
	Name        string `json:"name"`
	LowerName   string `json:"lowerName"`
	Description string `json:"description"`
	Tagline     string `json:"tagline"`
	BinaryName  string `json:"binaryName"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}
	Name = b.Name
	LowerName = b.LowerName
	Description = b.Description
	Tagline = b.Tagline
	BinaryName = b.BinaryName
}

var (
	Name        string
	LowerName   string
	Description string
	Tagline     string
	BinaryName  string

	// Version is set at build time via -ldflags.
	Version = "dev"
)

// Get returns the full brand identity.
func Get() Brand {
	return b
}

// UserAgent builds the HTTP User-Agent string for outbound calls.
func UserAgent(version string) string {
	if version == "" {
		version = Version
	}
	return LowerName + "/" + version
}
