// Package rewards appends signed reward events to the local ledger. It only
// does bookkeeping: every entry carries a holder-signed event, and anything
// resembling balance accounting happens elsewhere.
package rewards
