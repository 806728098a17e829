// Command projects manages projects in a media index database.
//
// It operates directly on the SQLite database, so it can create the first
// project before the indexer ever runs, and delete a project together with
// all its folders, media records, and tags.
//
// Usage:
//
//	projects create <name>
//	projects list
//	projects delete <name>
//
// The database location is taken from the DATABASE_DIR environment
// variable (default: /database).
package main
