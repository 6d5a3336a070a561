// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import "github.com/fatih/color"

// Output accents. color honors NO_COLOR and non-TTY output on its own, so
// these are safe to use unconditionally.
var (
	okMark  = color.New(color.FgGreen).SprintFunc()
	badMark = color.New(color.FgRed).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)
