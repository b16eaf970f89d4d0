// Package database connects the gateway to a metadata backend (SQLite or
// PostgreSQL) and returns a photoapi.MetaDataRepo.
package database
