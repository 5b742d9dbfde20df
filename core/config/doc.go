// Package config resolves the broker addresses courier processes connect
// to.
//
// Addresses are layered from three sources, weakest first: library
// defaults, a YAML file with per-cluster sections, and environment
// variables (COURIER_PUB_ADDR, COURIER_SUB_ADDR, COURIER_DEBUG_ADDR). A
// .env file in the working directory is loaded once on first use.
//
// The core components only ever see the three resolved address strings;
// everything about where they came from stays in this package.
package config
