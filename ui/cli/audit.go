// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
)

// auditCmd prints the audit trail. The log records actions and entry ids,
// never credential material, so reading it does not require an unlock.
var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "Show the audit log (newest first)",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		if len(entries) == 0 {
			fmt.Println(i18n.T("audit.empty"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER\tACTION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		w.Flush()
		return nil
	},
}
