package cli

import (
	"context"
	"fmt"
	"path/filepath"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/scamshield/pkg/tlsutil"
)

const (
	hostFlag   = "host"
	outDirFlag = "out"
)

func devCertsCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "dev-certs",
		Usage: "Writes a development CA and server certificate for running the service with TLS",
		Flags: []urfave.Flag{
			&urfave.StringSliceFlag{
				Name:  hostFlag,
				Usage: "DNS name or IP the server certificate covers (repeatable)",
				Value: []string{"localhost", "127.0.0.1"},
			},
			&urfave.StringFlag{
				Name:  outDirFlag,
				Usage: "Directory to write the PEM files to",
				Value: "certs",
			},
		},
		Action: cmdDevCerts,
	}
}

func cmdDevCerts(_ context.Context, cmd *urfave.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	certs, err := tlsutil.NewDevCertificates(nonEmpty(cmd.StringSlice(hostFlag)))
	if err != nil {
		return err
	}
	dir := cmd.String(outDirFlag)
	if err := certs.WriteDir(dir); err != nil {
		return err
	}

	e.logger.Info("development certificates written", "dir", dir)
	_, err = fmt.Fprintf(e.out, "GRPC_TLS_CERT_FILE=%s\nGRPC_TLS_KEY_FILE=%s\n# client: --tls-ca %s\n",
		filepath.Join(dir, tlsutil.ServerCertFile),
		filepath.Join(dir, tlsutil.ServerKeyFile),
		filepath.Join(dir, tlsutil.CACertFile))
	return err
}
