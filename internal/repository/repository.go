// Package repository handles all interactions with the database.
//
// It builds SQL with squirrel, runs it through the pgx pool and maps rows
// onto model types. Not-found results are tagged with their table via
// sqlerr.WithTable so the error handler can name the missing entity.
package repository
