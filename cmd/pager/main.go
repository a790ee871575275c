// pager is a cronable on-call pager. It watches a mailbox for alert mails,
// pages this week's primary contact, escalates to the backup when nobody
// replies before the next run, and mutes alerts once someone answers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
