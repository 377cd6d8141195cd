package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/logging"
	"github.com/podestapp/tiptop-go-rewrite/internal/receipts"
	"github.com/podestapp/tiptop-go-rewrite/internal/settings"
)

var receiptsForce bool

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Inspect or clear stored purchase receipts",
}

var receiptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored receipts for the active environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		list := repo.Load()
		if len(list) == 0 {
			fmt.Println("no receipts")
			return nil
		}

		now := time.Now()
		for _, r := range list {
			state := "valid"
			if receipts.Subscription.Expired(r.TransactionDate, now) {
				state = "expired"
			}
			fmt.Printf("%s\t%s\t%s\t%s\n",
				r.TransactionDate.Format(time.RFC3339),
				r.ProductID,
				r.TransactionID,
				state,
			)
		}
		return nil
	},
}

var receiptsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove all stored receipts and re-seal the trial clock",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		if !repo.RemoveAll(receiptsForce) {
			return fmt.Errorf("refusing to remove production receipts, pass --force to override")
		}
		fmt.Println("receipts removed")
		return nil
	},
}

func init() {
	receiptsRemoveCmd.Flags().BoolVar(&receiptsForce, "force", false, "remove even against the production backend")
	receiptsCmd.AddCommand(receiptsListCmd)
	receiptsCmd.AddCommand(receiptsRemoveCmd)
}

func openRepository() (*receipts.Repository, error) {
	cfg := loadConfig()
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: "warn", Component: "tiptop"})

	db, _, _, err := openKV(cfg)
	if err != nil {
		return nil, err
	}

	st := settings.Open(filepath.Join(cfg.DataDir, "settings.json"))
	return receipts.NewRepository(db, buildinfo.Resolve().Env, st), nil
}
