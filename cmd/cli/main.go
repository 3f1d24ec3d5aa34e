package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "escrowledger-cli",
		Short: "EscrowLedger CLI tool",
		Long:  `A command line interface for interacting with the EscrowLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the EscrowLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(escrowCommand())
	rootCmd.AddCommand(ledgerCommand())
	rootCmd.AddCommand(custodyCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func escrowCommand() *cobra.Command {
	escrowCmd := &cobra.Command{
		Use:   "escrow",
		Short: "Escrow operations",
	}

	var (
		owner       string
		beneficiary string
		amount      string
		deadline    uint64
		reference   string
	)
	prefundCmd := &cobra.Command{
		Use:   "prefund",
		Short: "Place escrowed prefunds for a new reference",
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/escrows", map[string]any{
				"owner":       owner,
				"beneficiary": beneficiary,
				"amount":      amount,
				"deadline":    deadline,
				"reference":   reference,
			})
		},
	}
	prefundCmd.Flags().StringVar(&owner, "owner", "", "Owner identity")
	prefundCmd.Flags().StringVar(&beneficiary, "beneficiary", "", "Beneficiary identity")
	prefundCmd.Flags().StringVar(&amount, "amount", "", "Amount to lock")
	prefundCmd.Flags().Uint64Var(&deadline, "deadline", 0, "Deadline period")
	prefundCmd.Flags().StringVar(&reference, "reference", "", "Escrow reference (hex)")

	var (
		issuer string
		payer  string
	)
	invoiceCmd := &cobra.Command{
		Use:   "invoice <reference>",
		Short: "Raise an invoice against a prefunded reference",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/escrows/"+args[0]+"/invoice", map[string]any{
				"issuer": issuer,
				"payer":  payer,
				"amount": amount,
			})
		},
	}
	invoiceCmd.Flags().StringVar(&issuer, "issuer", "", "Invoice issuer (beneficiary)")
	invoiceCmd.Flags().StringVar(&payer, "payer", "", "Invoice payer (owner)")
	invoiceCmd.Flags().StringVar(&amount, "amount", "", "Invoice amount")

	var caller string
	settleCmd := &cobra.Command{
		Use:   "settle <reference>",
		Short: "Settle an invoiced reference",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/escrows/"+args[0]+"/settle", map[string]any{"caller": caller})
		},
	}
	settleCmd.Flags().StringVar(&caller, "caller", "", "Calling identity")

	var state string
	releaseCmd := &cobra.Command{
		Use:   "release <reference>",
		Short: "Change the caller's release state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/escrows/"+args[0]+"/release", map[string]any{
				"caller": caller,
				"state":  state,
			})
		},
	}
	releaseCmd.Flags().StringVar(&caller, "caller", "", "Calling identity")
	releaseCmd.Flags().StringVar(&state, "state", "unlocked", "Requested state: locked or unlocked")

	reclaimCmd := &cobra.Command{
		Use:   "reclaim <reference>",
		Short: "Reclaim unspent prefunds after the deadline",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/escrows/"+args[0]+"/reclaim", map[string]any{"owner": owner})
		},
	}
	reclaimCmd.Flags().StringVar(&owner, "owner", "", "Owner identity")

	showCmd := &cobra.Command{
		Use:   "show <reference>",
		Short: "Show an escrow reference",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/escrows/" + args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <identity>",
		Short: "List an owner's live references",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/identities/" + args[0] + "/escrows")
		},
	}

	escrowCmd.AddCommand(prefundCmd, invoiceCmd, settleCmd, releaseCmd, reclaimCmd, showCmd, listCmd)
	return escrowCmd
}

func ledgerCommand() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <identity> <account>",
		Short: "Show an identity's balance for an account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/identities/" + args[0] + "/accounts/" + args[1] + "/balance")
		},
	}

	globalCmd := &cobra.Command{
		Use:   "global <account>",
		Short: "Show the ledger-wide balance for an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/accounts/" + args[0] + "/balance")
		},
	}

	accountsCmd := &cobra.Command{
		Use:   "accounts <identity>",
		Short: "List the accounts an identity has postings against",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/identities/" + args[0] + "/accounts")
		},
	}

	postingsCmd := &cobra.Command{
		Use:   "postings <identity> <account>",
		Short: "List posting indexes for an identity and account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/identities/" + args[0] + "/accounts/" + args[1] + "/postings")
		},
	}

	var identities []string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the escrow recipe accounts for identities",
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/seed-recipes", map[string]any{"identities": identities})
		},
	}
	seedCmd.Flags().StringSliceVar(&identities, "identity", nil, "Identity to seed (repeatable)")

	ledgerCmd.AddCommand(balanceCmd, globalCmd, accountsCmd, postingsCmd, seedCmd)
	return ledgerCmd
}

func custodyCommand() *cobra.Command {
	custodyCmd := &cobra.Command{
		Use:   "custody",
		Short: "Custody balance operations",
	}

	var amount string
	depositCmd := &cobra.Command{
		Use:   "deposit <account>",
		Short: "Fund a custody account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/custody/"+args[0]+"/deposit", map[string]any{"amount": amount})
		},
	}
	depositCmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")

	balanceCmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show a custody account's balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/custody/" + args[0] + "/balance")
		},
	}

	custodyCmd.AddCommand(depositCmd, balanceCmd)
	return custodyCmd
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	printResponse(resp)
}

func post(path string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Error encoding request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\n%s\n", resp.StatusCode, pretty.String())
		os.Exit(1)
	}

	fmt.Println(pretty.String())
}
