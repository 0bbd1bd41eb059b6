// ABOUTME: Version and product identification
// ABOUTME: Reported in logs, telemetry resources and mDNS records
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name
	Product = "udp-audio"

	// Manufacturer is the publishing organisation
	Manufacturer = "Resonate Protocol"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
