/*
Package httpserver serves the multisig JSON API over HTTP.

The API lets operators register users, generate secp256k1 key pairs for them,
create messages bound to a set of signer addresses, collect signatures and
verify that a message carries its required number of valid signatures.
Successful verifications produce a receipt that is archived in the configured
storage backends.

# API Endpoints

  - POST /api/v1/users - Create a user
  - GET /api/v1/users - List users
  - GET /api/v1/users/{name} - Get a user and its keys
  - DELETE /api/v1/users/{name} - Delete a user
  - POST /api/v1/users/{name}/keypair - Generate a key pair for a user
  - POST /api/v1/messages - Create a message
  - GET /api/v1/messages - List messages
  - GET /api/v1/messages/{id} - Get a message with its bindings
  - DELETE /api/v1/messages/{id} - Delete a message
  - POST /api/v1/messages/{id}/sign - Sign with the keys behind the given addresses
  - GET /api/v1/messages/{id}/verify - Verify the quorum and archive a receipt
  - GET /api/v1/receipts/{content_id} - Fetch an archived receipt
  - GET /api/v1/contents/{content_id} - Fetch archived message content
  - GET /api/v1/address/{address} - Validate an address and return its key hash
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Mark server as not ready
  - GET /undrain - Mark server as ready

# Errors

Failures are returned as {"error": "..."} with a status derived from the
error kind: malformed input and rejected keys map to 400, missing users,
messages and receipts to 404, conflicts and unmet quorums to 409 (the latter
with "have" and "need" fields), and invalid signatures to 422. Internal
failures return 500 with the message masked.

# Example Usage

	svc := service.New(store, archive, multisigMetrics, logger)
	handler := httpserver.NewHandler(svc, 0, logger)

	server, err := httpserver.New(&api.HTTPServerConfig{
		ListenAddr:               ":8080",
		Log:                      logger,
		DrainDuration:            10 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
	}, handler, nil)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
