// Package common holds process-level helpers shared by the daemons:
// logger setup and build identification.
package common

// PackageName identifies this service in metrics and logs.
const PackageName = "aml-oracle-backend"

// Version is set at build time via -ldflags.
var Version = "dev"
