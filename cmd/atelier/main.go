package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"atelier-go/internal/app"
	"atelier-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an AtelierApp. The caller must
// defer a.Close(). operation identifies the CLI command being run
// (e.g. "UserAdd", "Backup").
func newApp(operation string) (*app.AtelierApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewAtelierApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassword prompts for a password without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Scene composition persistence service",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		installID := uuid.New().String()
		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", cfg.InstallID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Vault:      %s\n", cfg.Vault.Type)
		return nil
	},
}

// setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate snapshot encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Setup")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassword("Key passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupEncryption(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// user commands
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		recoveryKey, err := a.AddUser(context.Background(), args[0], password)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Printf("User %s created.\n", args[0])
		fmt.Printf("Recovery key (store it safely, it will not be shown again): %s\n", recoveryKey)
		return nil
	},
}

var userRmCmd = &cobra.Command{
	Use:   "rm USERNAME",
	Short: "Delete a user account and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserRm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveUser(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}

		fmt.Printf("User %s deleted.\n", args[0])
		return nil
	},
}

var userResetCmd = &cobra.Command{
	Use:   "reset USERNAME RECOVERY_KEY",
	Short: "Reset a password using the recovery key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserReset")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readPassword("New password: ")
		if err != nil {
			return err
		}

		if err := a.ResetPassword(context.Background(), args[0], args[1], password); err != nil {
			return fmt.Errorf("resetting password: %w", err)
		}

		fmt.Printf("Password reset for %s. A new recovery key was issued; fetch it from the account owner flow.\n", args[0])
		return nil
	},
}

// session commands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start USERNAME",
	Short: "Authenticate and start a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SessionStart")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		key, err := a.StartSession(context.Background(), args[0], password)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		fmt.Printf("Session key: %s\n", key)
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end SESSION_KEY",
	Short: "End a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SessionEnd")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EndSession(context.Background(), args[0]); err != nil {
			return fmt.Errorf("ending session: %w", err)
		}

		fmt.Println("Session ended.")
		return nil
	},
}

// media commands
var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage media assets",
}

var mediaLsCmd = &cobra.Command{
	Use:   "ls USERNAME",
	Short: "List a user's media library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MediaLs")
		if err != nil {
			return err
		}
		defer a.Close()

		assets, err := a.ListMedia(context.Background(), args[0])
		if err != nil {
			return err
		}

		if len(assets) == 0 {
			fmt.Println("No media registered.")
			return nil
		}

		for _, m := range assets {
			fmt.Printf("%s  %-30s  %s\n", m.MediaKey, m.Title, m.RelativePath)
		}
		return nil
	},
}

var mediaRmCmd = &cobra.Command{
	Use:   "rm MEDIA_KEY",
	Short: "Delete a media asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MediaRm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveMedia(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting media: %w", err)
		}

		fmt.Println("Media deleted. Sprites that referenced it keep their geometry.")
		return nil
	},
}

// project commands
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectLsCmd = &cobra.Command{
	Use:   "ls USERNAME",
	Short: "List a user's projects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ProjectLs")
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.ListProjects(context.Background(), args[0])
		if err != nil {
			return err
		}

		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}

		for _, p := range projects {
			title := "(untitled)"
			if p.Title != nil {
				title = *p.Title
			}
			fmt.Printf("%s  %-30s  %s\n", p.ProjectKey, title, p.CreatedTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export an encrypted database snapshot to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Snapshot version %d uploaded.\n", version)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore DEST_PATH",
	Short: "Fetch and decrypt the latest snapshot from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassword("Key passphrase: ")
		if err != nil {
			return err
		}

		if err := a.Restore(passphrase, args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Snapshot restored to %s\n", args[0])
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Status()
		if err != nil {
			return err
		}

		fmt.Println(out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRmCmd)
	userCmd.AddCommand(userResetCmd)

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)

	mediaCmd.AddCommand(mediaLsCmd)
	mediaCmd.AddCommand(mediaRmCmd)

	projectCmd.AddCommand(projectLsCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(statusCmd)
}
