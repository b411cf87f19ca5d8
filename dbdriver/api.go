// Package dbdriver provides a local key-value store for DSS client state (e.g., tickets).
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dbdriver

import (
	"errors"
	"fmt"
	"strings"
)

// General info:
// ## Collection ##
//   For 'buntdb' the collection is purely virtual: it is just a prefix of a key
//   in the database.
// ## List ##
//   If a pattern is empty, List returns all keys in the collection. Otherwise,
//   the pattern is considered a prefix.
// ## Errors ##
//   A driver must convert its own errors to `dbdriver` package errors for clients.

const CollectionSepa = "##"

type (
	Driver interface {
		// A driver should sync data with local drives on close
		Close() error
		// Write an object to database. Object is marshaled as JSON
		Set(collection, key string, object any) error
		// Read an object from database.
		Get(collection, key string, object any) error
		// Write an already marshaled object or simple string
		SetString(collection, key, data string) error
		// Read a string or an object as JSON from database
		GetString(collection, key string) (string, error)
		// Delete a single object
		Delete(collection, key string) error
		// Delete all keys of the collection
		DeleteCollection(collection string) error
		// Return keys of a collection that start with `pattern`
		List(collection, pattern string) ([]string, error)
		// Return keys with their values: map[key]value
		GetAll(collection, pattern string) (map[string]string, error)
	}

	ErrNotFound struct {
		collection string
		key        string
	}
)

func makePath(collection, key string) string { return collection + CollectionSepa + key }

// Extract collection and key names from full key path
func ParsePath(path string) (string, string) {
	pos := strings.Index(path, CollectionSepa)
	if pos < 0 {
		return path, ""
	}
	return path[:pos], path[pos+len(CollectionSepa):]
}

func NewErrNotFound(collection, key string) *ErrNotFound {
	return &ErrNotFound{collection: collection, key: key}
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.collection, e.key)
}

func IsErrNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}
