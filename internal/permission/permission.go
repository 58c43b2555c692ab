// Package permission holds the flag bitmask assigned to every account
// and the pure policy decisions derived from it. It has no dependencies
// on storage or transport so call sites and tests stay declarative.
package permission

// Flags is a bitmask of account tiers and capabilities. The zero value
// carries no permissions and is never stored; newly created accounts
// receive Default() unless the bootstrap rule applies.
type Flags uint32

const (
	// Free is the unprivileged default tier.
	Free Flags = 1 << iota
	// Paid is the elevated tier.
	Paid
	// PaidPlus is reserved for a future premium tier.
	PaidPlus
	// Admin grants administrative capabilities.
	Admin
)

// All grants every capability, including bits not yet assigned.
const All Flags = 0x7FFFFFFF

// Default returns the flag value assigned to ordinary new accounts.
func Default() Flags { return Free }

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Initial decides the flags a new account receives. Only the first
// account ever created may keep its requested value; everyone else is
// forced to Default() regardless of what was asked for. A first user
// that requested nothing also falls back to Default().
func Initial(firstUser bool, requested Flags) Flags {
	if firstUser && requested != 0 {
		return requested
	}
	return Default()
}

// Capability is a named, policy-level permission check. Handlers ask
// for capabilities, not raw bits, so the bit assignment can change
// without touching call sites.
type Capability int

const (
	// CapListUsers allows enumerating all accounts.
	CapListUsers Capability = iota
	// CapSetFlags allows changing an arbitrary account's flags.
	CapSetFlags
)

// String implements fmt.Stringer for logs and audit entries.
func (c Capability) String() string {
	switch c {
	case CapListUsers:
		return "list_users"
	case CapSetFlags:
		return "set_flags"
	default:
		return "unknown"
	}
}

// required maps each capability to the flag bits that grant it.
var required = map[Capability]Flags{
	CapListUsers: Admin,
	CapSetFlags:  Admin,
}

// Authorize reports whether flags satisfy the capability. Unknown
// capabilities are always denied.
func Authorize(flags Flags, cap Capability) bool {
	bits, ok := required[cap]
	if !ok {
		return false
	}
	return flags.Has(bits)
}
