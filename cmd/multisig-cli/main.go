package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/api/clients"
	"github.com/ruteri/multisig-service/cmd/flags"
	"github.com/ruteri/multisig-service/common"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/urfave/cli/v2"
)

var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 30 * time.Second,
	Usage: "request timeout",
}
var flagUser = &cli.StringFlag{
	Name:     "user",
	Required: true,
	Usage:    "user name",
}
var flagMessageID = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "message id",
}
var flagKeys = &cli.StringSliceFlag{
	Name:     "key",
	Required: true,
	Usage:    "signer address; repeatable",
}

func main() {
	app := &cli.App{
		Name:    "multisig-cli",
		Usage:   "Manage users, messages and signatures on a multisig server",
		Version: common.Version,
		Flags:   append([]cli.Flag{flags.ServerURLFlag, flagTimeout}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:  "user",
				Usage: "manage users",
				Subcommands: []*cli.Command{
					{
						Name:      "create",
						ArgsUsage: "<name>",
						Action: func(cCtx *cli.Context) error {
							resp, err := client(cCtx).CreateUser(cCtx.Context, cCtx.Args().First())
							return printResult(resp, err)
						},
					},
					{
						Name: "list",
						Action: func(cCtx *cli.Context) error {
							resp, err := client(cCtx).ListUsers(cCtx.Context)
							return printResult(resp, err)
						},
					},
					{
						Name:      "get",
						ArgsUsage: "<name>",
						Action: func(cCtx *cli.Context) error {
							resp, err := client(cCtx).GetUser(cCtx.Context, cCtx.Args().First())
							return printResult(resp, err)
						},
					},
					{
						Name:      "delete",
						ArgsUsage: "<name>",
						Action: func(cCtx *cli.Context) error {
							return client(cCtx).DeleteUser(cCtx.Context, cCtx.Args().First())
						},
					},
				},
			},
			{
				Name:  "keypair",
				Usage: "generate a key pair for a user on the server",
				Flags: []cli.Flag{flagUser},
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).GenerateKeyPair(cCtx.Context, cCtx.String(flagUser.Name))
					return printResult(resp, err)
				},
			},
			{
				Name:  "message",
				Usage: "manage messages",
				Subcommands: []*cli.Command{
					{
						Name:  "create",
						Usage: "create a message bound to the given signer addresses",
						Flags: []cli.Flag{
							flagKeys,
							&cli.StringFlag{Name: "content", Usage: "message content"},
							&cli.PathFlag{Name: "content-file", Usage: "read message content from a file"},
							&cli.IntFlag{Name: "required", Usage: "required signature count, defaults to all keys"},
						},
						Action: createMessage,
					},
					{
						Name: "list",
						Action: func(cCtx *cli.Context) error {
							resp, err := client(cCtx).ListMessages(cCtx.Context)
							return printResult(resp, err)
						},
					},
					{
						Name:  "get",
						Flags: []cli.Flag{flagMessageID},
						Action: func(cCtx *cli.Context) error {
							id, err := messageID(cCtx)
							if err != nil {
								return err
							}
							resp, err := client(cCtx).GetMessage(cCtx.Context, id)
							return printResult(resp, err)
						},
					},
					{
						Name:  "delete",
						Flags: []cli.Flag{flagMessageID},
						Action: func(cCtx *cli.Context) error {
							id, err := messageID(cCtx)
							if err != nil {
								return err
							}
							return client(cCtx).DeleteMessage(cCtx.Context, id)
						},
					},
				},
			},
			{
				Name:  "sign",
				Usage: "sign a message with the server-held keys behind the given addresses",
				Flags: []cli.Flag{flagMessageID, flagKeys},
				Action: func(cCtx *cli.Context) error {
					id, err := messageID(cCtx)
					if err != nil {
						return err
					}
					resp, err := client(cCtx).SignMessage(cCtx.Context, id, cCtx.StringSlice(flagKeys.Name))
					return printResult(resp, err)
				},
			},
			{
				Name:  "verify",
				Usage: "verify that a message has its required signatures",
				Flags: []cli.Flag{flagMessageID},
				Action: func(cCtx *cli.Context) error {
					id, err := messageID(cCtx)
					if err != nil {
						return err
					}
					resp, err := client(cCtx).VerifyMessage(cCtx.Context, id)
					return printResult(resp, err)
				},
			},
			{
				Name:      "receipt",
				Usage:     "fetch an archived verification receipt",
				ArgsUsage: "<receipt id>",
				Action: func(cCtx *cli.Context) error {
					resp, err := client(cCtx).GetReceipt(cCtx.Context, cCtx.Args().First())
					return printResult(resp, err)
				},
			},
			{
				Name:      "content",
				Usage:     "fetch archived message content and write it to stdout",
				ArgsUsage: "<content id>",
				Action: func(cCtx *cli.Context) error {
					content, err := client(cCtx).GetContent(cCtx.Context, cCtx.Args().First())
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(content)
					return err
				},
			},
			{
				Name:      "address",
				Usage:     "validate an address and print its key hash",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "decode locally without contacting the server"},
				},
				Action: decodeAddress,
			},
			{
				Name:  "keygen",
				Usage: "generate a key pair locally and print it",
				Action: func(cCtx *cli.Context) error {
					kp, err := cryptoutils.GenerateKeyPair()
					if err != nil {
						return err
					}
					return printResult(map[string]string{
						"address":     kp.Address(),
						"public_key":  kp.PublicKey().String(),
						"private_key": hex.EncodeToString(kp.PrivateKeyBytes()),
					}, nil)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func client(cCtx *cli.Context) *clients.MultisigClient {
	logger := flags.SetupLogger(cCtx)
	logger.Debug("Using multisig server", "url", cCtx.String(flags.ServerURLFlag.Name))
	return clients.NewMultisigClient(cCtx.String(flags.ServerURLFlag.Name), cCtx.Duration(flagTimeout.Name))
}

func messageID(cCtx *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(cCtx.String(flagMessageID.Name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not parse message id: %w", err)
	}
	return id, nil
}

func createMessage(cCtx *cli.Context) error {
	var content []byte
	switch {
	case cCtx.IsSet("content") && cCtx.IsSet("content-file"):
		return errors.New("only one of --content and --content-file may be set")
	case cCtx.IsSet("content-file"):
		var err error
		content, err = os.ReadFile(cCtx.Path("content-file"))
		if err != nil {
			return fmt.Errorf("could not read content file: %w", err)
		}
	default:
		content = []byte(cCtx.String("content"))
	}

	var required *int
	if cCtx.IsSet("required") {
		n := cCtx.Int("required")
		required = &n
	}

	resp, err := client(cCtx).CreateMessage(cCtx.Context, content, cCtx.StringSlice(flagKeys.Name), required)
	return printResult(resp, err)
}

func decodeAddress(cCtx *cli.Context) error {
	address := cCtx.Args().First()
	if !cCtx.Bool("offline") {
		resp, err := client(cCtx).DecodeAddress(cCtx.Context, address)
		return printResult(resp, err)
	}

	keyHash, err := cryptoutils.DecodeAddress(address)
	if err != nil {
		return err
	}
	return printResult(map[string]string{"address": address, "key_hash": keyHash.String()}, nil)
}

func printResult(v any, err error) error {
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
