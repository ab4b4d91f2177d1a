// Package types defines the configuration, ledger schemas, keys, records and
// standard errors shared by the radonledger packages.
//
// A ledger is a CSV table with a fixed header and exactly one key column. The
// schemas for the measurement, efficiency and threshold-sweep ledgers live
// here so that the pipelines, the ledger store and the CLI agree on column
// order.
package types
