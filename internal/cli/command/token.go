package command

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mintworks/nftregistry-go/internal/cli/connection"
	"github.com/mintworks/nftregistry-go/internal/cli/output"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"tok"},
		Usage:   "Mint, query and move tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "mint",
				Usage: "Mint a token (open to any authenticated caller)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Recipient identity",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "content-file",
						Usage: "Path to the content blob",
					},
				},
				Action: tokenMint,
			},
			{
				Name:  "simple-mint",
				Usage: "Self-mint a token through the mint-window policy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Recipient identity (must be whitelisted)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "uri",
						Usage:    "Asset URI",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mime-type",
						Usage: "Asset MIME type",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Asset display name",
					},
					&cli.StringFlag{
						Name:  "origin",
						Usage: "Origin marker",
					},
				},
				Action: tokenSimpleMint,
			},
			{
				Name:      "owner",
				Usage:     "Show the owner of a token",
				ArgsUsage: "TOKEN_ID",
				Action:    tokenOwner,
			},
			{
				Name:      "metadata",
				Usage:     "Show the metadata of a token",
				ArgsUsage: "TOKEN_ID",
				Action:    tokenMetadata,
			},
			{
				Name:      "digest",
				Usage:     "Show the content digest of a token",
				ArgsUsage: "TOKEN_ID",
				Action:    tokenDigest,
			},
			{
				Name:      "content",
				Usage:     "Download the content blob of a token",
				ArgsUsage: "TOKEN_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"O"},
						Usage:   "Write the blob to a file instead of stdout",
					},
				},
				Action: tokenContent,
			},
			{
				Name:      "transfer",
				Usage:     "Transfer a token",
				ArgsUsage: "TOKEN_ID",
				Flags:     transferFlags(),
				Action:    tokenTransfer,
			},
			{
				Name:      "approve",
				Usage:     "Grant a delegate on a token",
				ArgsUsage: "TOKEN_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "delegate",
						Usage:    "Delegate identity",
						Required: true,
					},
				},
				Action: tokenApprove,
			},
			{
				Name:      "burn",
				Usage:     "Burn a token (owner only, irreversible)",
				ArgsUsage: "TOKEN_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: tokenBurn,
			},
		},
	}
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "from",
			Usage:    "Current owner identity",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "Recipient identity",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "safe",
			Usage: "Reject the zero identity as destination",
		},
		&cli.BoolFlag{
			Name:  "notify",
			Usage: "Dispatch a webhook to the recipient after commit",
		},
	}
}

// tokenIDArg parses the TOKEN_ID positional argument.
func tokenIDArg(c *cli.Context) (uint64, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, fmt.Errorf("token ID required")
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token ID %q", arg)
	}
	return id, nil
}

func tokenMint(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	body := map[string]any{"to": c.String("to")}
	if path := c.String("content-file"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		body["content"] = content
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/registry/tokens", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		TokenID uint64 `json:"token_id"`
		Txid    uint64 `json:"txid"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Token %d minted to %s (txid %d).\n", result.TokenID, c.String("to"), result.Txid)
	return nil
}

func tokenSimpleMint(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/registry/tokens/simple-mint", map[string]any{
		"to":        c.String("to"),
		"uri":       c.String("uri"),
		"mime_type": c.String("mime-type"),
		"name":      c.String("name"),
		"origin":    c.String("origin"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		TokenID uint64 `json:"token_id"`
		Txid    uint64 `json:"txid"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Token %d minted to %s (txid %d).\n", result.TokenID, c.String("to"), result.Txid)
	return nil
}

func tokenOwner(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, fmt.Sprintf("/registry/tokens/%d/owner", id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		TokenID uint64 `json:"token_id"`
		Owner   string `json:"owner"`
		Burned  bool   `json:"burned"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output))
	return formatter.Format(os.Stdout, result)
}

func tokenMetadata(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, fmt.Sprintf("/registry/tokens/%d/metadata", id))
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

func tokenDigest(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, fmt.Sprintf("/registry/tokens/%d/digest", id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		TokenID uint64 `json:"token_id"`
		Digest  string `json:"digest"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("%s\n", result.Digest)
	return nil
}

func tokenContent(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, fmt.Sprintf("/registry/tokens/%d/content", id))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	blob, err := connection.ReadRaw(resp)
	if err != nil {
		return err
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, blob, 0o644); err != nil {
			return fmt.Errorf("write file: %w", err)
		}
		fmt.Printf("Wrote %d bytes to %s.\n", len(blob), out)
		return nil
	}

	_, err = os.Stdout.Write(blob)
	return err
}

func tokenTransfer(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/registry/tokens/%d/transfer", id)
	switch {
	case c.Bool("safe") && c.Bool("notify"):
		path = fmt.Sprintf("/registry/tokens/%d/safe-transfer-notify", id)
	case c.Bool("safe"):
		path = fmt.Sprintf("/registry/tokens/%d/safe-transfer", id)
	case c.Bool("notify"):
		path = fmt.Sprintf("/registry/tokens/%d/transfer-notify", id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, path, map[string]any{
		"from": c.String("from"),
		"to":   c.String("to"),
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

	fmt.Printf("Token %d transferred to %s (txid %d).\n", id, c.String("to"), result.Txid)
	return nil
}

func tokenApprove(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, fmt.Sprintf("/registry/tokens/%d/approve", id), map[string]any{
		"delegate": c.String("delegate"),
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

	fmt.Printf("Delegate %s approved on token %d (txid %d).\n", c.String("delegate"), id, result.Txid)
	return nil
}

func tokenBurn(c *cli.Context) error {
	id, err := tokenIDArg(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		fmt.Printf("Burning token %d is irreversible. Type 'y' to confirm: ", id)
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

	resp, err := client.Post(ctx, fmt.Sprintf("/registry/tokens/%d/burn", id), nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Txid uint64 `json:"txid"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Token %d burned (txid %d).\n", id, result.Txid)
	return nil
}
