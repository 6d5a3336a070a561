// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
)

// dbMaintainCmd runs the backend-specific housekeeping (vacuum, optimize,
// integrity check). Useful after large imports or many deletions.
var dbMaintainCmd = &cobra.Command{
	Use:     "db-maintain",
	Short:   "Run database maintenance (vacuum, optimize, integrity check)",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeoutSec, _ := cmd.Flags().GetInt("timeout")

		fmt.Println(i18n.T("maintain.running"))
		if timeoutSec > 0 {
			done := make(chan error, 1)
			go func() {
				done <- db.RunDBMaintenance()
			}()
			select {
			case err := <-done:
				if err != nil {
					return errors.New(i18n.T("maintain.failed", err))
				}
			case <-time.After(time.Duration(timeoutSec) * time.Second):
				return errors.New(i18n.T("maintain.timeout", timeoutSec))
			}
		} else {
			if err := db.RunDBMaintenance(); err != nil {
				return errors.New(i18n.T("maintain.failed", err))
			}
		}
		fmt.Printf("%s %s\n", okMark("✓"), i18n.T("maintain.success"))
		return nil
	},
}
