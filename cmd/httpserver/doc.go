// Package main (cmd/httpserver) runs the multisig API server.
//
// The server keeps users, key pairs and messages in the store selected by
// --store-dsn and archives message contents and verification receipts to
// every --archive-uri given. Prometheus metrics are served on --metrics-addr.
//
// Example:
//
//	multisig-server \
//	  --listen-addr 0.0.0.0:8080 \
//	  --store-dsn postgres://multisig:secret@db/multisig?sslmode=disable \
//	  --archive-uri file:///var/lib/multisig \
//	  --archive-uri "s3://receipts-bucket/multisig/?region=eu-west-1"
package main
