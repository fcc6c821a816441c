package domain

// Account snapshot of one client balance as reported to collaborators.
type Account struct {
	Client ClientID
	// Available funds usable for withdrawal right now.
	Available Amount
	// Held funds frozen pending dispute resolution.
	Held NonNegativeAmount
	// Total is Available plus Held.
	Total  Amount
	Locked bool
}
