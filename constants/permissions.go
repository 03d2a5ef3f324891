package constants

// Permissions carried in the JWT issued by the auth collaborator. The
// names mirror the museum's role matrix: customers purchase and view
// their own tickets; counter staff sell and look up customers; guides
// and security run check-in/check-out; admins hold "all".
const (
	PermAll       = "all"
	PermPurchase  = "purchase"
	PermMyTickets = "my_tickets"
	PermTickets   = "tickets"
	PermCustomers = "customers"
	PermCheckin   = "checkin"
	PermCheckout  = "checkout"
	PermRating    = "rating"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	StaffPermissions = []string{
		PermTickets,
		PermCustomers,
		PermCheckin,
		PermCheckout,
	}
)
