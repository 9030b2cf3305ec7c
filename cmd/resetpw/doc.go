// Command resetpw manages the MangaShelf password from the command
// line. It operates directly on the server's SQLite database, so run it
// on the host (or in the container) that owns DATABASE_DIR.
//
//	resetpw reset    replace the password; all sessions are invalidated
//	resetpw status   report whether a password is configured
//
// Initial setup happens through the web interface; reset only works
// once a password exists.
package main
