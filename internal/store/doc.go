// Package store implements the durable, project-isolated persistence layer
// for the media indexing engine.
//
// All data lives in a single SQLite database with four logical tables:
// projects, folders, media, and tags (plus the media_tags association
// table). Every folder, media, and tag row is owned by exactly one project,
// and every read or write operation takes the owning project identifier;
// there is no global query mode. Deleting a project cascades through all
// rows it owns.
//
// Identity lookups use normalized path keys from the pathid package so the
// same physical path encountered with different casing resolves to one row.
package store
