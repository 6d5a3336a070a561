// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/strongroom-io/strongroom/internal/logging"

// debugEnabled gates the chatty timing logs emitted while opening stores and
// running migrations. Off by default so normal CLI runs stay quiet.
var debugEnabled bool

// SetDebug enables or disables debug logging for the db package.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func dbLogf(format string, v ...any) {
	if !debugEnabled {
		return
	}
	logging.Debugf(format, v...)
}
