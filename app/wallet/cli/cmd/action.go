package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/devest/venue/foundation/venue/act"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	url      string
	nonce    uint64
	instance string
	op       string
	price    uint64
	units    uint64
	amount   uint64
	taxBps   uint64
	decimals uint64
	orderID  string
	to       string
	asset    string
)

// actionCmd represents the action command.
var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Sign and submit an instrument operation",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		submitAction(privateKey)
	},
}

func submitAction(privateKey *ecdsa.PrivateKey) {
	action := act.Action{
		Nonce:      nonce,
		InstanceID: instance,
		Op:         act.Op(op),
		Price:      price,
		Units:      units,
		Amount:     amount,
		TaxBps:     taxBps,
		Decimals:   decimals,
		OrderID:    ledger.AccountID(orderID),
		To:         ledger.AccountID(to),
		Asset:      asset,
	}

	signedAct, err := action.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedAct)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/actions/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(body))
}

func init() {
	rootCmd.AddCommand(actionCmd)
	actionCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	actionCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Unique per-account id for the action.")
	actionCmd.Flags().StringVarP(&instance, "instance", "i", "", "Id of the target instrument.")
	actionCmd.Flags().StringVarP(&op, "op", "o", "", "Operation to perform.")
	actionCmd.Flags().Uint64Var(&price, "price", 0, "Per-unit price, or aggregate value for initialize.")
	actionCmd.Flags().Uint64Var(&units, "units", 0, "Units to trade or transfer.")
	actionCmd.Flags().Uint64Var(&amount, "amount", 0, "Currency amount for pay and add-asset.")
	actionCmd.Flags().Uint64Var(&taxBps, "tax", 0, "Tax rate in basis points for initialize.")
	actionCmd.Flags().Uint64Var(&decimals, "decimals", 0, "Display decimals for initialize.")
	actionCmd.Flags().StringVar(&orderID, "order", "", "Order to trade against for accept.")
	actionCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient for transfer, candidate for vote-custodian.")
	actionCmd.Flags().StringVar(&asset, "asset", "", "Token symbol for add-asset.")
}
