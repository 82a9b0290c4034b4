// Package acl is the anti-corruption layer between the remote quote feed and
// the domain.
//
// External DTOs stay unexported inside this package. Every response is
// translated into [domain.Quote] values before it leaves, and every failure
// is mapped to a domain error:
//
//   - 404 → [domain.ErrNotFound]
//   - 409 → [domain.ErrConflict]
//   - 400/422 and other 4xx → [domain.ErrValidation]
//   - 401/403, 429, 5xx, transport failures → [domain.ErrUnavailable]
//
// Client-level failures ([clients.ErrCircuitOpen],
// [clients.ErrMaxRetriesExceeded]) also become [domain.ErrUnavailable].
//
// [RemoteQuoteClient] is the adapter the sync cycle uses. New feeds follow
// the same shape: embed [BaseAdapter], decode with [DecodeResponse], convert
// with [TranslateSlice].
package acl
