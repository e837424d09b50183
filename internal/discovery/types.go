package discovery

import "context"

// Device is one host that answered an ARP request.
type Device struct {
	IP  string
	MAC string
}

// Discoverer binds a ScanConfig so callers can sweep repeatedly with the
// same settings.
type Discoverer struct {
	Config ScanConfig
}

// Discover runs Discover with d.Config.
func (d *Discoverer) Discover(ctx context.Context, subnet string) ([]Device, error) {
	return Discover(ctx, subnet, &d.Config)
}
