// Package tricount is a client for the Tricount registry API.
//
// A Client holds the base URL and HTTP transport. Each Session registers
// its own app installation: it generates an RSA keypair and a fresh
// installation UUID, posts them to the registration endpoint, and keeps
// the returned session token and user id for authenticated requests.
//
// Sessions are not safe for concurrent use. Concurrent fetches need one
// Session each.
package tricount
