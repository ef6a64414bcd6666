// Package walletservice owns worker balances, the escrow ledger, and money
// movement through the payment gateway. Every balance change is a ledger row
// with a unique reference; balances are never mutated without one.
package walletservice
