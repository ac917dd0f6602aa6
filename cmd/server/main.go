package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"smartpark/internal/entities"
	"smartpark/internal/layout"
	"smartpark/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "smartpark",
		Short:        "Parking lot monitoring dashboard",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(layoutCmd())
	cmd.AddCommand(hashPasswordCmd())
	return cmd
}

func layoutCmd() *cobra.Command {
	var (
		zonesFile string
		seed      uint64
		random    bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the generated floor plan as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			zones := layout.DefaultZones()
			if zonesFile != "" {
				var err error
				if zones, err = layout.LoadZones(zonesFile); err != nil {
					return err
				}
			}

			var spots []entities.ParkingSpot
			if random {
				spots = layout.Generate(zones, rand.New(rand.NewPCG(seed, seed)))
			} else {
				spots = layout.GenerateReset(zones)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Zones []entities.ZoneConfig  `json:"zones"`
				Spots []entities.ParkingSpot `json:"spots"`
			}{zones, spots})
		},
	}
	cmd.Flags().StringVar(&zonesFile, "zones", "", "Zones YAML file (defaults to the built-in floor plan)")
	cmd.Flags().BoolVar(&random, "random", false, "Apply random initial occupancy")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for --random")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for OPERATOR_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
