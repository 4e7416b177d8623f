// Package charter maintains access to the venue charter file. The charter
// fixes the economic parameters every node of a venue must agree on: the
// settlement currency, the issuance fee, and the starting balances used to
// provision trader accounts.
package charter

import (
	"encoding/json"
	"os"
	"time"
)

// Charter represents the charter file.
type Charter struct {
	Date           time.Time         `json:"date"`
	VenueID        string            `json:"venue_id"`        // Unique id for this venue.
	CurrencySymbol string            `json:"currency_symbol"` // Symbol of the settlement currency.
	CurrencySupply uint64            `json:"currency_supply"` // Total supply minted at startup.
	IssueFee       uint64            `json:"issue_fee"`       // Fee charged per issued instrument, forwarded to the treasury.
	Balances       map[string]uint64 `json:"balances"`        // Starting currency balances per account.
}

// =============================================================================

// Load opens and consumes the charter file.
func Load(path string) (Charter, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Charter{}, err
	}

	var charter Charter
	err = json.Unmarshal(content, &charter)
	if err != nil {
		return Charter{}, err
	}

	return charter, nil
}
