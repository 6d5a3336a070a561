// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package security provides secret handling primitives: a redacting byte
// wrapper for sensitive values in transit and a memguard-backed container
// for the session key, so key material stays out of logs, dumps and
// accidental copies.
package security
