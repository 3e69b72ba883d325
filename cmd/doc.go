// Package cmd implements the kafka-recon command line interface.
//
// The interesting work lives in the internal packages; cmd wires them to
// cobra commands and hosts the interactive shell, which is a thin
// read-evaluate-report loop over the session, the connector, and the
// discoverer.
package cmd
