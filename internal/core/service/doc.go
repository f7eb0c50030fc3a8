// Package service provides the registry application service.
//
// RegistryService validates requests, drives the storage engine, and
// dispatches post-commit transfer notifications. All authorization
// decisions (ownership, delegates, operators, custodians, the mint
// window) live in the ledger; the service only checks that required
// arguments are present before handing off.
package service
