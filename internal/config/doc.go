// Package config provides the configuration of the inspector: the document
// folder layout, source PDF discovery, export bundle options and the review
// history database. Values start from defaults, are overridden by an optional
// YAML file and finally by CLI flags.
package config
