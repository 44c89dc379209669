package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/deppfellow/portfolio/internal/lib/email"
)

var emailPreviewCmd = &cobra.Command{
	Use:   "email-preview [template]",
	Short: "Render an email template with sample data to stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			names := make([]string, 0, len(email.PreviewData))
			for name := range email.PreviewData {
				names = append(names, string(name))
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		tmpl := email.Template(args[0])
		data, ok := email.PreviewData[tmpl]
		if !ok {
			return fmt.Errorf("unknown template %q", args[0])
		}

		html, err := email.Render(tmpl, data)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	},
}
