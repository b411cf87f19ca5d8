// Package apc: DSS protocol actions, headers, and query parameters
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package apc

const (
	QparamAction = "action" // standard mode: all actions via POST
	QparamScope  = "scope"  // GET: any | local | remote | exact
)

// GET scope
const (
	ScopeAny    = "any"
	ScopeLocal  = "local"
	ScopeRemote = "remote"
	ScopeExact  = "exact"
)

func ValidScope(s string) bool {
	switch s {
	case "", ScopeAny, ScopeLocal, ScopeRemote, ScopeExact:
		return true
	}
	return false
}
