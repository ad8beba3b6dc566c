// Package ident provides the opaque identifiers that name registrable
// components. An identifier is a handle: two identifiers are the same
// component only if they are the same handle, never because their
// descriptions happen to match.
package ident
