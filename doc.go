// Package jwtverify provides HTTP middleware around the verifier
// package: bearer-token extraction from the Authorization header,
// request-scoped claims, and error-to-status mapping. The verification
// engine itself lives in the verifier subpackage; the key-server client
// in keyfetch; configuration loading in config.
package jwtverify
