package admin

// Outcome is the structured result of an admin operation.
type Outcome string

const (
	Added                 Outcome = "added"
	AlreadyExists         Outcome = "already_exists"
	InvalidAddress        Outcome = "invalid_address"
	InvalidOwner          Outcome = "invalid_owner"
	Removed               Outcome = "removed"
	NotFound              Outcome = "not_found"
	NoMatch               Outcome = "no_match"
	ConfirmationRequested Outcome = "confirmation_requested"
	Confirmed             Outcome = "confirmed"
	NothingPending        Outcome = "nothing_pending"
)

// Result carries an Outcome and the values needed to report it.
type Result struct {
	Outcome Outcome
	Address string
	Owner   string
	Count   int // addresses matched for an owner removal
}
