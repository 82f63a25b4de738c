// Package common holds process-wide helpers shared by the binaries.
package common

// PackageName is used as the Prometheus namespace and the default log service tag.
const PackageName = "multisig"

// Version is overridden at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"
