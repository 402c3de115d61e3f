package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	shop "goflare.io/storefront"
	"goflare.io/storefront/identity"
	"goflare.io/storefront/models"
	"goflare.io/storefront/notification"
)

var (
	registerName string
	loginToken   string
	markAllRead  bool
)

var registerCmd = &cobra.Command{
	Use:   "register <email> <password>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := app.passwords.Register(cmd.Context(), args[0], args[1], registerName); err != nil {
			return err
		}
		user, err := app.session.SignInWithPassword(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Welcome, %s!\n", displayName(user))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [<email> <password>]",
	Short: "Sign in with a password or a Firebase ID token",
	Args: func(cmd *cobra.Command, args []string) error {
		if loginToken != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			user *models.Identity
			err  error
		)
		if loginToken != "" {
			user, err = app.session.SignInWithToken(cmd.Context(), loginToken)
		} else {
			user, err = app.session.SignInWithPassword(cmd.Context(), args[0], args[1])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s.\n", displayName(user))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.session.SignOut(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := app.session.Current()
		if user == nil {
			return shop.ErrSignInRequired
		}
		if done, err := printJSON(user); done {
			return err
		}
		fmt.Printf("%s <%s> via %s\n", displayName(user), user.Email, user.Provider)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <display-name>",
	Short: "Change the signed-in user's display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := app.session.UpdateProfile(cmd.Context(), args[0])
		if errors.Is(err, identity.ErrNotSignedIn) {
			return shop.ErrSignInRequired
		}
		if err != nil {
			return err
		}
		fmt.Printf("Profile updated: %s.\n", displayName(user))
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List the signed-in user's notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUID()
		if err != nil {
			return err
		}
		list, err := app.notifications.List(cmd.Context(), uid)
		if err != nil {
			return err
		}
		if done, err := printJSON(list); done {
			return err
		}

		now := time.Now()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, n := range list {
			marker := " "
			if !n.Read {
				marker = "•"
			}
			fmt.Fprintf(w, "%s %d\t%s %s\t%s\t%s\n", marker, n.ID, n.Icon, n.Title, n.Message, notification.Age(n.Timestamp, now))
		}
		return w.Flush()
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [<id>]",
	Short: "Mark one notification, or all with --all, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUID()
		if err != nil {
			return err
		}
		if markAllRead {
			return app.notifications.MarkAllRead(cmd.Context(), uid)
		}
		if len(args) == 0 {
			return errors.New("notification id or --all required")
		}
		id, err := parseNotificationID(args[0])
		if err != nil {
			return err
		}
		return app.notifications.MarkRead(cmd.Context(), uid, id)
	},
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUID()
		if err != nil {
			return err
		}
		id, err := parseNotificationID(args[0])
		if err != nil {
			return err
		}
		return app.notifications.Delete(cmd.Context(), uid, id)
	},
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Print the unread notification count",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUID()
		if err != nil {
			return err
		}
		count, err := app.notifications.UnreadCount(cmd.Context(), uid)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Firebase ID token")
	notificationsReadCmd.Flags().BoolVar(&markAllRead, "all", false, "Mark every notification as read")
	notificationsCmd.AddCommand(notificationsReadCmd, notificationsDeleteCmd, notificationsUnreadCmd)
}

func currentUID() (string, error) {
	user := app.session.Current()
	if user == nil {
		return "", shop.ErrSignInRequired
	}
	return user.UID, nil
}

func displayName(user *models.Identity) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Email
}

func parseNotificationID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid notification id %q", raw)
	}
	return id, nil
}
