package storeregistry

// Usage restricts which programs may open a given store backend.
//
// Backends are linked at build time: a backend package registers itself in
// init() and a binary enables it with a (usually blank) import.
type Usage uint8

const (
	// UsageCLI marks backends usable from one-shot tools (xdao-bridge).
	UsageCLI Usage = 1 << iota
	// UsageDaemon marks backends usable from the long-running bridge (xdao-bridged).
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }
