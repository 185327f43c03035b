// Package database provides the SQLite connection and schema migration
// support for BotLink Core.
//
// The database backs the accessory snapshot store: observed device state
// persisted across restarts so accessories start warm instead of blank.
// Migrations are embedded in the binary by the migrations package and
// applied automatically at startup, each in its own transaction.
package database
