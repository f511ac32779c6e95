// Command bridgetoken manages the bearer token that guards a bridge
// host's /api endpoints.
//
// Usage:
//
//	bridgetoken <command>
//
// Commands:
//
//	generate  Print a random token and its bcrypt hash.
//	hash      Read a token twice from the terminal and print its hash.
//	verify    Read a token and check it against BRIDGE_TOKEN_HASH.
//
// The host reads the hash from BRIDGE_TOKEN_HASH; clients send the token
// as "Authorization: Bearer <token>".
package main
