package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/storage"
	"github.com/muurk/wifistat/internal/ui"
)

// Credential command flags
var (
	credsReveal  bool
	credsJSON    bool
	credsNetwork string
	credsSecret  string
	credsYes     bool
)

func init() {
	credsShowCmd.Flags().BoolVar(&credsReveal, "reveal", false, "Print the secret instead of a mask")
	credsShowCmd.Flags().BoolVar(&credsJSON, "json", false, "Print JSON for scripting")

	credsSetCmd.Flags().StringVar(&credsNetwork, "network", "", "Network name (required)")
	credsSetCmd.Flags().StringVar(&credsSecret, "secret", "", "Network secret (required)")
	_ = credsSetCmd.MarkFlagRequired("network")
	_ = credsSetCmd.MarkFlagRequired("secret")

	credsEraseCmd.Flags().BoolVarP(&credsYes, "yes", "y", false, "Skip the confirmation prompt")

	credsCmd.AddCommand(credsShowCmd, credsSetCmd, credsEraseCmd)
	rootCmd.AddCommand(credsCmd)
}

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Inspect or change the stored network credentials",
	Long: `Inspect or change the credential record in the device storage
directory. The device reads it at boot: without it the device enters setup
mode, with it the device joins the named network.`,
}

var credsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		creds, err := store.Load()
		if err != nil {
			if credentials.IsMissing(err) {
				fmt.Fprintln(out, ui.RenderWarning("No usable credentials", map[string]string{
					"Status":  credentials.ShortMessage(err),
					"Storage": storageLocation(cfg, store),
				}))
				return nil
			}
			return err
		}

		secret := creds.Secret
		if !credsReveal {
			secret = strings.Repeat("*", len(secret))
		}

		if credsJSON {
			data, err := json.MarshalIndent(map[string]string{
				credentials.FieldNetworkName: creds.NetworkName,
				credentials.FieldSecret:      secret,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, ui.RenderSuccess("Stored credentials", map[string]string{
			"Network": creds.NetworkName,
			"Secret":  secret,
			"Storage": storageLocation(cfg, store),
		}))
		return nil
	},
}

var credsSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Store credentials directly, bypassing the setup portal",
	Example: `  wifistat creds set --network HomeNetwork --secret hunter22`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		creds := credentials.Credentials{NetworkName: credsNetwork, Secret: credsSecret}
		if err := store.Save(creds); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Credentials saved", map[string]string{
			"Network": creds.NetworkName,
			"Storage": storageLocation(cfg, store),
		}))
		return nil
	},
}

var credsEraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the stored credentials (factory reset)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		where := storageLocation(cfg, store)

		if !credsYes {
			if !ui.IsInteractive() {
				return errors.New("refusing to erase without --yes on a non-interactive terminal")
			}
			if !ui.FactoryResetConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), where) {
				return nil
			}
		}

		if err := store.Erase(); err != nil {
			return fmt.Errorf("erase credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Credentials erased", map[string]string{
			"Storage": where,
		}))
		return nil
	},
}

// openStore mounts the configured storage directory and returns the
// credential store on it.
func openStore() (*credentials.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, err := cfg.StorageDir()
	if err != nil {
		return nil, nil, err
	}
	fs := storage.NewDir(dir)
	if err := fs.Mount(); err != nil {
		return nil, nil, fmt.Errorf("mount storage: %w", err)
	}
	cdc, err := codec.ByName(cfg.Storage.Codec)
	if err != nil {
		return nil, nil, err
	}
	return credentials.NewStore(fs, cdc), cfg, nil
}

func storageLocation(cfg *config.Config, store *credentials.Store) string {
	dir, err := cfg.StorageDir()
	if err != nil {
		return store.Path()
	}
	return dir + " (" + store.Path() + ")"
}
