package public

import "time"

type info struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

type actInfo struct {
	Symbol   string `json:"symbol"`
	Accounts []info `json:"accounts"`
}

type summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Account     string `json:"account"`
	State       string `json:"state"`
	Custodian   string `json:"custodian"`
	Value       uint64 `json:"value"`
	Price       uint64 `json:"price"`
	TaxRateBps  uint64 `json:"tax_rate_bps"`
	Decimals    uint64 `json:"decimals"`
	EscrowTotal uint64 `json:"escrow_total"`
	Holders     int    `json:"holders"`
	Orders      int    `json:"orders"`
}

type holder struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Units   uint64 `json:"units"`
}

type order struct {
	Trader    string `json:"trader"`
	Name      string `json:"name"`
	Side      string `json:"side"`
	Price     uint64 `json:"price"`
	Remaining uint64 `json:"remaining"`
	Escrow    uint64 `json:"escrow"`
}

type trade struct {
	Buyer      string    `json:"buyer"`
	BuyerName  string    `json:"buyer_name"`
	Seller     string    `json:"seller"`
	SellerName string    `json:"seller_name"`
	Units      uint64    `json:"units"`
	Price      uint64    `json:"price"`
	Value      uint64    `json:"value"`
	Tax        uint64    `json:"tax"`
	Date       time.Time `json:"date"`
}

type asset struct {
	Symbol string `json:"symbol"`
	Amount uint64 `json:"amount"`
}

type detail struct {
	summary
	Assets         []asset  `json:"assets"`
	DisburseLevels []uint64 `json:"disburse_levels"`
}
