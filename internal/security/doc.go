// Package security hashes login passwords with scrypt and issues the API
// tokens that authenticate dataset requests.
//
// Stored hashes use the form
//
//	scrypt$<N>$<r>$<p>$<base64 salt>$<base64 key>
//
// which contains neither ':' nor ',' and can therefore be supplied through
// CHEMVIZ_SECURITY_AUTH_USERS.
package security
