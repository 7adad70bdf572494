// Package snapshot provides out-of-band key-value stores for JSON
// documents. A snapshot is the document serialized as-is; nothing is
// validated on the way in or out.
package snapshot
