package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const driverName = "postgres"

// OpenDb opens a connection with the DB.
// If the operation fails when trying to establish a connection and the `autoCreate` flag is set to
// true, OpenDb will try to create the database set in the DSN.
func OpenDb(dsn string, autoCreate bool) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := connectDB(ctx, db, dsn, autoCreate); err != nil {
		return nil, fmt.Errorf("unable to establish connection with db: %v", err)
	}

	return db, nil
}

// connectDB pings the db since sql.Open is lazy. If the db does not exist and autoCreate is set,
// it creates it and pings again.
func connectDB(ctx context.Context, db *sql.DB, dsn string, autoCreate bool) error {
	if err := db.PingContext(ctx); err != nil {
		var dbErr *pq.Error
		// 3D000: invalid_catalog_name. This means that the selected db does not exist.
		if errors.As(err, &dbErr) && dbErr.Code == "3D000" && autoCreate {
			log.Info("Postgres database does not exist, creating it...")

			if err = createDB(ctx, dsn); err != nil {
				return err
			}

			return connectDB(ctx, db, dsn, false)
		}

		return err
	}

	return nil
}

// createDB tries to create a DB using the dsn to determine the db name.
func createDB(ctx context.Context, dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("cannot auto-create database unless the DSN uses URL format")
	}

	parsedURL, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsedURL.Path, "/")
	if dbName == "" {
		return fmt.Errorf("cannot auto-create when database name is empty")
	}

	parsedURL.Path = ""

	rootDB, err := sql.Open(driverName, parsedURL.String())
	if err != nil {
		return err
	}
	// nolint
	defer rootDB.Close()

	query := "CREATE DATABASE " + pq.QuoteIdentifier(dbName)
	log.Infof("Executing query '%s'", query)
	if _, err := rootDB.ExecContext(ctx, query); err != nil {
		return err
	}

	return nil
}

// isConflictError tells whether the error is a serialization failure or a deadlock, both of
// which mean the transaction lost a race against a concurrent one.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 40001: serialization_failure, 40P01: deadlock_detected.
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "could not serialize access") ||
		strings.Contains(errMsg, "deadlock detected")
}
