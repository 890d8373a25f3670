// Package portfolio tracks an investment portfolio as daily series.
//
// Every asset of a portfolio holds one record per day since the portfolio
// creation: the count held and the market price of the day. Prices come from
// a MarketDataProvider and days without a quote take the last known price.
// Trades (positions) and fees are recorded as events; a position changes the
// count held from its day on.
//
// The core functionalities include:
//   - Series maintenance: Update extends every asset series up to a day, all
//     assets or none.
//   - Events: Buy, Sell and AddFee record events, RemoveEvent and
//     RemoveAsset undo them.
//   - Valuation: ValueAt, History and DistributionAt value the holdings at
//     market price.
//   - Reports: AlltimeStats and PeriodicStats summarize the result of the
//     trades and fees over the portfolio life or calendar periods.
//   - Persistence: EncodePortfolio and DecodePortfolio read and write a
//     human-readable JSONL file.
//
// This package serves as the foundational logic for the `aut` command-line
// tool. The rebalance package computes the trades that bring a portfolio to a
// target distribution.
package portfolio
