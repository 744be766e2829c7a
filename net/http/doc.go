/*
Package http provides a minimal HTTP client wrapper used by the jose/jwk
key resolution chain to fetch `jku`/`x5u` URLs.

	client, _ := NewClient(WithTimeout(10 * time.Second))
	resp, err := client.Get(ctx, "https://issuer.example.com/.well-known/jwks.json")
*/
package http
