package fedclient

// Gateway is one Lightning gateway announced by a federation.
type Gateway struct {
	// ID is the gateway's node public key.
	ID string

	// Vetted marks gateways endorsed by the federation's guardians.
	Vetted bool

	BaseFeeMsat        uint64
	ProportionalFeePPM uint64

	// SupportsPrivatePayments marks gateways that can settle without
	// revealing the recipient's node.
	SupportsPrivatePayments bool

	// Unavailable marks announcements whose gateway could not be resolved
	// to a usable route. Such candidates are skipped entirely.
	Unavailable bool
}

// Fee floors below which a gateway is assumed to be underpricing routing and
// is passed over unless nothing better exists.
const (
	minGatewayBaseFeeMsat = 1000
	minGatewayFeePPM      = 100
)

// SelectGateway picks the gateway to route a payment through, or reports
// that none is usable. The policy, scanning candidates in announcement
// order:
//
//  1. The first vetted gateway wins outright.
//  2. Otherwise, among gateways meeting both fee floors, prefer ones that
//     support private payments; a later private-capable candidate replaces
//     an earlier pick, a later non-private one does not.
//  3. Otherwise fall back to the first usable candidate of any kind.
//
// Given the same candidates in the same order the result is deterministic.
func SelectGateway(gateways []Gateway) (Gateway, bool) {
	var selected *Gateway
	for i := range gateways {
		g := &gateways[i]
		if g.Unavailable {
			continue
		}
		if g.Vetted {
			return *g, true
		}
		if g.BaseFeeMsat >= minGatewayBaseFeeMsat && g.ProportionalFeePPM >= minGatewayFeePPM {
			if g.SupportsPrivatePayments || selected == nil {
				selected = g
			}
		}
	}
	if selected != nil {
		return *selected, true
	}
	for i := range gateways {
		if !gateways[i].Unavailable {
			return gateways[i], true
		}
	}
	return Gateway{}, false
}
