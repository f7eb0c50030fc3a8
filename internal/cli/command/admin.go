package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mintworks/nftregistry-go/internal/cli/connection"
	"github.com/mintworks/nftregistry-go/internal/cli/output"
)

// AdminCommand returns the admin subcommand group. All operations
// require an admin-role API key whose identity is a custodian.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Custodian settings and snapshot management",
		Subcommands: []*cli.Command{
			{
				Name:      "set-name",
				Usage:     "Set the collection name",
				ArgsUsage: "NAME",
				Action:    adminSetName,
			},
			{
				Name:      "set-symbol",
				Usage:     "Set the collection symbol",
				ArgsUsage: "SYMBOL",
				Action:    adminSetSymbol,
			},
			{
				Name:  "set-logo",
				Usage: "Set the collection logo",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the logo image",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content-type",
						Usage:    "Logo MIME type (e.g., image/png)",
						Required: true,
					},
				},
				Action: adminSetLogo,
			},
			{
				Name:      "set-custodian",
				Usage:     "Grant or revoke custodian status",
				ArgsUsage: "IDENTITY",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "revoke",
						Usage: "Revoke instead of grant",
					},
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: adminSetCustodian,
			},
			{
				Name:  "snapshot",
				Usage: "Manage state snapshots",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Trigger a snapshot now",
						Action: adminSnapshotCreate,
					},
					{
						Name:   "list",
						Usage:  "List available snapshots, newest first",
						Action: adminSnapshotList,
					},
				},
			},
		},
	}
}

func adminSetName(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("name required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/name", map[string]any{"name": name})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Collection name set to %q.\n", name)
	return nil
}

func adminSetSymbol(c *cli.Context) error {
	symbol := c.Args().First()
	if symbol == "" {
		return fmt.Errorf("symbol required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/symbol", map[string]any{"symbol": symbol})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Collection symbol set to %q.\n", symbol)
	return nil
}

func adminSetLogo(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("read logo file: %w", err)
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/logo", map[string]any{
		"content_type": c.String("content-type"),
		"data":         data,
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Collection logo updated (%d bytes).\n", len(data))
	return nil
}

func adminSetCustodian(c *cli.Context) error {
	identity := c.Args().First()
	if identity == "" {
		return fmt.Errorf("identity required")
	}

	revoke := c.Bool("revoke")
	if revoke && !c.Bool("force") {
		fmt.Printf("Revoke custodian status from '%s'? [y/N]: ", identity)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/custodians", map[string]any{
		"custodian": identity,
		"grant":     !revoke,
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	verb := "granted to"
	if revoke {
		verb = "revoked from"
	}
	fmt.Printf("Custodian status %s %s.\n", verb, identity)
	return nil
}

func adminSnapshotCreate(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/snapshots", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Snapshot struct {
			ID         string `json:"id"`
			TokenCount int64  `json:"token_count"`
			Size       int64  `json:"size"`
		} `json:"snapshot"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Snapshot %s created (%d tokens, %d bytes).\n",
		result.Snapshot.ID, result.Snapshot.TokenCount, result.Snapshot.Size)
	return nil
}

func adminSnapshotList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/snapshots")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Snapshots []struct {
			ID         string `json:"id"`
			TokenCount int64  `json:"token_count"`
			CreatedAt  int64  `json:"created_at"`
			Size       int64  `json:"size"`
		} `json:"snapshots"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, result)
	}

	table := &output.Table{Headers: []string{"ID", "TOKENS", "SIZE", "CREATED_AT"}}
	for _, s := range result.Snapshots {
		table.AddRow(
			s.ID,
			fmt.Sprintf("%d", s.TokenCount),
			fmt.Sprintf("%d", s.Size),
			fmt.Sprintf("%d", s.CreatedAt),
		)
	}
	if err := table.Render(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d snapshots\n", len(result.Snapshots))
	return nil
}
