// Command coursesearch serves the course catalog search API and runs its
// maintenance tasks.
//
// Subcommands:
//
//	serve     start the HTTP server (default)
//	migrate   apply, roll back or list schema migrations
//	load      upsert a JSON or YAML course file into the catalog
//
// Exit codes: 0 = success, 1 = error.
package main

func main() {
	Execute()
}
