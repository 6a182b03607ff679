// Package evaluator turns calculator text into a rounded number using CEL.
//
// Bare integer literals are rewritten as doubles before compilation, so
// "1/2" yields 0.5 and "1/0" yields +Inf, which is rejected. Results are
// rounded half away from zero to two decimals.
package evaluator
