package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	"github.com/secure-systems-lab/go-securesystemslib/signer"
)

var (
	Version   = ""
	GitCommit = ""
	GitDate   = ""
)

func main() {
	oplog.SetupDefaults()

	app := cli.NewApp()
	app.Flags = cliapp.ProtectFlags(signer.CLIFlags("SSLIB_SIGNER"))
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "sslib-signer"
	app.Usage = "Remote signing service for securesystemslib keys"
	app.Description = ""
	app.Commands = []*cli.Command{
		{
			Name:  "client",
			Usage: "test client for signer service",
			Subcommands: []*cli.Command{
				{
					Name:   string(signer.ClientActionSign),
					Usage:  "sign data with a named key, 2 args: key name, hex-encoded data",
					Action: signer.ClientAction(signer.ClientActionSign),
					Flags:  cliapp.ProtectFlags(signer.ClientCLIFlags("SSLIB_SIGNER")),
				},
				{
					Name:   string(signer.ClientActionPubkey),
					Usage:  "fetch the public half of a named key, 1 arg: key name",
					Action: signer.ClientAction(signer.ClientActionPubkey),
					Flags:  cliapp.ProtectFlags(signer.ClientCLIFlags("SSLIB_SIGNER")),
				},
				{
					Name:   string(signer.ClientActionListKeys),
					Usage:  "list the key names this client may use",
					Action: signer.ClientAction(signer.ClientActionListKeys),
					Flags:  cliapp.ProtectFlags(signer.ClientCLIFlags("SSLIB_SIGNER")),
				},
			},
		},
		{
			Name:  "keygen",
			Usage: "generate and inspect key files for the LOCAL provider",
			Subcommands: []*cli.Command{
				{
					Name:   "generate",
					Usage:  "generate a keypair and write it to disk",
					Action: signer.KeygenGenerate,
					Flags:  cliapp.ProtectFlags(signer.KeygenGenerateCLIFlags("SSLIB_SIGNER")),
				},
				{
					Name:   "inspect",
					Usage:  "print the public metadata of a key file, 1 arg: path",
					Action: signer.KeygenInspect,
					Flags:  cliapp.ProtectFlags(signer.KeygenInspectCLIFlags("SSLIB_SIGNER")),
				},
			},
		},
	}

	app.Action = cliapp.LifecycleCmd(signer.MainAppAction(Version))
	err := app.Run(os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}
