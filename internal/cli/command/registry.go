package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mintworks/nftregistry-go/internal/cli/connection"
	"github.com/mintworks/nftregistry-go/internal/cli/output"
)

const requestTimeout = 30 * time.Second

// InfoCommand returns the registry info command.
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Show registry name, symbol, supply and mint window",
		Action: registryInfo,
		Subcommands: []*cli.Command{
			{
				Name:   "whitelist",
				Usage:  "Show the self-mint whitelist",
				Action: registryWhitelist,
			},
		},
	}
}

func registryInfo(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/info")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Name         string   `json:"name"`
		Symbol       string   `json:"symbol"`
		TotalSupply  uint64   `json:"total_supply"`
		BeginDate    string   `json:"begin_date"`
		EndDate      string   `json:"end_date"`
		TotalLimit   string   `json:"total_limit"`
		Capabilities []string `json:"capabilities"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	return formatter.Format(os.Stdout, result)
}

func registryWhitelist(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/whitelist")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Whitelist []string `json:"whitelist"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	if output.Format(flags.Output) == output.FormatJSON {
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, result)
	}

	table := &output.Table{Headers: []string{"IDENTITY"}}
	for _, id := range result.Whitelist {
		table.AddRow(id)
	}
	if err := table.Render(os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d whitelisted identities\n", len(result.Whitelist))
	return nil
}

// OwnerCommand returns the owner query subcommand group.
func OwnerCommand() *cli.Command {
	return &cli.Command{
		Name:  "owner",
		Usage: "Query holdings of an identity",
		Subcommands: []*cli.Command{
			{
				Name:      "balance",
				Usage:     "Count tokens held by an identity",
				ArgsUsage: "IDENTITY",
				Action:    ownerBalance,
			},
			{
				Name:      "metadata",
				Usage:     "List metadata of all tokens held by an identity",
				ArgsUsage: "IDENTITY",
				Action:    ownerMetadata,
			},
			{
				Name:      "is-custodian",
				Usage:     "Check whether an identity is a custodian",
				ArgsUsage: "IDENTITY",
				Action:    ownerIsCustodian,
			},
		},
	}
}

func ownerBalance(c *cli.Context) error {
	identity := c.Args().First()
	if identity == "" {
		return fmt.Errorf("identity required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/owners/"+identity+"/balance")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Identity string `json:"identity"`
		Balance  uint64 `json:"balance"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	return formatter.Format(os.Stdout, result)
}

func ownerMetadata(c *cli.Context) error {
	identity := c.Args().First()
	if identity == "" {
		return fmt.Errorf("identity required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/owners/"+identity+"/metadata")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result []map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	formatter := &output.JSONFormatter{}
	return formatter.Format(os.Stdout, result)
}

func ownerIsCustodian(c *cli.Context) error {
	identity := c.Args().First()
	if identity == "" {
		return fmt.Errorf("identity required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/custodians/"+identity)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Identity    string `json:"identity"`
		IsCustodian bool   `json:"is_custodian"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	return formatter.Format(os.Stdout, result)
}

// OperatorCommand returns the operator subcommand group.
func OperatorCommand() *cli.Command {
	return &cli.Command{
		Name:  "operator",
		Usage: "Manage operator grants over all of the caller's tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Grant or revoke an operator",
				ArgsUsage: "OPERATOR",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "revoke",
						Usage: "Revoke instead of grant",
					},
				},
				Action: operatorSet,
			},
			{
				Name:      "check",
				Usage:     "Check whether an operator may act for the caller",
				ArgsUsage: "OPERATOR",
				Action:    operatorCheck,
			},
		},
	}
}

func operatorSet(c *cli.Context) error {
	operator := c.Args().First()
	if operator == "" {
		return fmt.Errorf("operator identity required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/registry/operators", map[string]any{
		"operator": operator,
		"enabled":  !c.Bool("revoke"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Txid uint64 `json:"txid"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	verb := "granted"
	if c.Bool("revoke") {
		verb = "revoked"
	}
	fmt.Printf("Operator %s %s (txid %d).\n", operator, verb, result.Txid)
	return nil
}

func operatorCheck(c *cli.Context) error {
	operator := c.Args().First()
	if operator == "" {
		return fmt.Errorf("operator identity required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/registry/operators/"+operator)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Operator string `json:"operator"`
		Approved bool   `json:"approved"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	return formatter.Format(os.Stdout, result)
}
