// Package model holds the types shared by the pipeline engine and its options:
// the description of a stage and the hooks an option can implement.
package model
