/*
Package api defines the wire types and server configuration shared by the
multisig HTTP server and its clients.

Requests and responses are JSON. Binary fields (message content) are base64
strings; public keys and signatures are 0x-prefixed hex. Errors are returned
as ErrorResponse, which carries "have" and "need" when a verification failed
for lack of signatures.

The clients subpackage provides a Go client for the API.
*/
package api
