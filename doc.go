// Package optionpl reconciles option fills into a realized profit and loss
// ledger, grouped by underlying instrument and settlement year.
//
// The core functionalities include:
//   - Normalization: converting a broker's order export into single-leg
//     contract fills, resolving each leg's option instrument.
//   - Lot Matching: pairing opening fills with closing fills of the same
//     strike, expiration and strategy, in creation order, consuming
//     quantities across partial matches and settling expired remainders.
//   - Ledger Accumulation: collecting profit, cost basis, holding duration
//     and settlement year for every match, per instrument.
//   - Data Persistence: reading and writing fills and ledger entries in a
//     human-readable, version-controllable JSONL format.
//
// This package serves as the foundational logic for the `opl` command-line
// tool. Amounts are kept per share as quoted by the exchange; reports scale
// them by ContractMultiplier.
package optionpl
