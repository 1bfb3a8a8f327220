// Command notifydemo shows a Notification working over whichever Sender it
// is given.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smartnotes/smartnotes/internal/notify"
)

func main() {
	ctx := context.Background()

	email := notify.NewNotification(notify.NewEmailSender(os.Stdout))
	sms := notify.NewNotification(notify.NewSMSSender(os.Stdout))

	if err := email.Notify(ctx, "Hello via Email!"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := sms.Notify(ctx, "Hello via SMS!"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
