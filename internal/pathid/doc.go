// Package pathid canonicalizes filesystem paths into comparison keys.
//
// Every identity lookup in the store, resolver, and tagging layers goes
// through Key so that the same physical path encountered with different
// casing or separators across scans resolves to the same logical entity.
package pathid
