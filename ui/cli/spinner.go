// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/strongroom-io/strongroom/internal/logging"
)

// startSpinner shows a spinner around a slow operation (key derivation,
// re-encryption). Log output is silenced while the spinner runs so the two
// do not interleave; in verbose mode the spinner stays off and logs flow.
// Callers may set s.FinalMSG before invoking cleanup to leave a result line.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// A failed color assignment just means an uncolored spinner.
	_ = s.Color("cyan")

	if !verbose {
		s.Start()
		logging.L.SetOutput(io.Discard)
	}

	cleanup := func() {
		finalMsg := s.FinalMSG
		// Clear FinalMSG so Stop does not print it on the spinner line.
		s.FinalMSG = ""

		if !verbose {
			logging.L.SetOutput(os.Stderr)
			s.Stop()
		}

		if finalMsg != "" {
			if !strings.HasSuffix(finalMsg, "\n") {
				finalMsg += "\n"
			}
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}
