/*
Package clients provides a Go client for the multisig HTTP API.

MultisigClient wraps every /api/v1 endpoint: user and key pair management,
message creation, signing, verification, receipt retrieval and address
decoding. Non-2xx responses are returned as *APIError, which carries the
status code and the server's error message. When verification fails for lack
of signatures the error also carries the have/need counts.

# Example Usage

	c := clients.NewMultisigClient("http://localhost:8080")

	key, err := c.GenerateKeyPair(ctx, "alice")
	if err != nil {
		return err
	}

	msg, err := c.CreateMessage(ctx, []byte("payload"), []string{key.Address}, nil)
	if err != nil {
		return err
	}

	if _, err := c.SignMessage(ctx, msg.ID, []string{key.Address}); err != nil {
		return err
	}

	result, err := c.VerifyMessage(ctx, msg.ID)
	if clients.IsStatus(err, http.StatusConflict) {
		// quorum not reached yet
	}
*/
package clients
