package domain

// AdminCapability authorizes basket mutations. The engine never inspects who
// is calling; holding a capability produced by the host's authorization check
// is the whole contract.
type AdminCapability struct {
	granted bool
}

// GrantAdmin mints a capability. Only the host application's authorization
// layer should call this.
func GrantAdmin() AdminCapability {
	return AdminCapability{granted: true}
}

// Valid reports whether the capability was actually granted, guarding against
// zero-value capabilities.
func (c AdminCapability) Valid() bool {
	return c.granted
}
