// Package stockfolio manages stock portfolios: named collections of buy and
// sell lots valued against historical close prices.
//
// The core functionalities include:
//   - Lot accounting: a Ledger of lots where buys and sells of the same ticker
//     on the same day merge, and a sell never exceeds the position held
//     strictly before its date.
//   - Portfolios: Flexible portfolios grow by dated lots, Inflexible ones hold
//     a fixed set of whole share positions given at creation.
//   - Valuation: a stateless engine computing value, composition, cost basis
//     and performance of a portfolio as of a date, from a PriceLookup.
//   - Dollar cost averaging: a Strategy generating periodic buys split across
//     tickers, executed at most once into a portfolio.
//   - Persistence: a Book of portfolios saved to a LedgerStore after every
//     mutation, as a flat stream of JSONL records.
//
// This package serves as the foundational logic for the `folio` command-line
// tool.
package stockfolio
