package transaction

// Listing defaults
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Transition names carried by InvalidTransition errors.
const (
	actionAccept          = "accept"
	actionSubmit          = "submit"
	actionApprove         = "approve"
	actionRequestRevision = "request_revision"
	actionDispute         = "dispute"
)
