package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
	"github.com/podestapp/tiptop-go-rewrite/internal/receipts"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current entitlement facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		version := buildinfo.Resolve()
		fmt.Printf("environment:  %s\n", version.Env)
		fmt.Printf("build:        %s\n", version.Build)

		list := repo.Load()
		fmt.Printf("receipts:     %d\n", len(list))
		if status, expiration, ok := receipts.StatusInfo(list); ok {
			fmt.Printf("subscription: %s, expires %s\n", status, expiration.Format(time.RFC1123))
		}

		unsealed := repo.Trial().UnsealedTime()
		if unsealed.IsZero() {
			fmt.Println("trial:        not started")
			return nil
		}
		if repo.Trial().Active() {
			fmt.Printf("trial:        active until %s\n", receipts.Trial.Expiration(unsealed).Format(time.RFC1123))
		} else {
			fmt.Printf("trial:        expired %s\n", receipts.Trial.Expiration(unsealed).Format(time.RFC1123))
		}
		return nil
	},
}
