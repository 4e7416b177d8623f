package charter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devest/venue/foundation/venue/charter"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the venue charter from disk.")
	{
		t.Logf("\tTest 0:\tWhen the charter file is well formed.")
		{
			doc := `{
	"date": "2023-05-11T00:00:00Z",
	"venue_id": "devest-local",
	"currency_symbol": "VCOIN",
	"currency_supply": 1000000000000,
	"issue_fee": 10000000,
	"balances": {
		"0xF01813E4B85e178A83e29B8E7bF26BD830a25f32": 100000000000
	}
}`
			path := filepath.Join(t.TempDir(), "charter.json")
			if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the file: %v", failed, err)
			}

			ch, err := charter.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the charter: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the charter.", success)

			if ch.VenueID != "devest-local" || ch.CurrencySymbol != "VCOIN" {
				t.Fatalf("\t%s\tTest 0:\tShould carry the venue identity: got %s %s", failed, ch.VenueID, ch.CurrencySymbol)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the venue identity.", success)

			if ch.IssueFee != 10_000_000 || ch.CurrencySupply != 1_000_000_000_000 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the economic terms: got %d %d", failed, ch.IssueFee, ch.CurrencySupply)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the economic terms.", success)

			if bal := ch.Balances["0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"]; bal != 100_000_000_000 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the starting balances: got %d", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the starting balances.", success)
		}

		t.Logf("\tTest 1:\tWhen the charter file is missing.")
		{
			if _, err := charter.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould report a missing file.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould report a missing file.", success)
		}
	}
}
