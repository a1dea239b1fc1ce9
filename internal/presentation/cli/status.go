package cli

import (
	"context"
	"fmt"
	"time"

	urfave "github.com/urfave/cli/v3"
	"google.golang.org/grpc/credentials"

	grpcpresentation "github.com/bibbank/scamshield/internal/presentation/grpc"
	"github.com/bibbank/scamshield/pkg/tlsutil"
)

const (
	addrFlag               = "addr"
	tlsCAFlag              = "tls-ca"
	tlsServerNameFlag      = "tls-server-name"
	insecureSkipVerifyFlag = "insecure-skip-verify"
	callTimeoutFlag        = "call-timeout"
)

// statusReport is the status command output.
type statusReport struct {
	Address     string `json:"address" yaml:"address"`
	Strategy    string `json:"strategy" yaml:"strategy"`
	Health      string `json:"health" yaml:"health"`
	Ready       bool   `json:"ready" yaml:"ready"`
	ModelLoaded bool   `json:"model_loaded" yaml:"model_loaded"`
}

func statusCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "status",
		Usage: "Reports the scorer status of a running scamshield service",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    addrFlag,
				Usage:   "gRPC address of the service",
				Value:   "localhost:8090",
				Sources: urfave.EnvVars("SCAMSHIELD_ADDR"),
			},
			&urfave.StringFlag{
				Name:  tlsCAFlag,
				Usage: "CA certificate enabling TLS (optional, plaintext when neither TLS flag is set)",
			},
			&urfave.StringFlag{
				Name:  tlsServerNameFlag,
				Usage: "Name to verify the server certificate against (optional, host of --addr when not set)",
			},
			&urfave.BoolFlag{
				Name:  insecureSkipVerifyFlag,
				Usage: "Use TLS without verifying the server certificate (development only)",
			},
			&urfave.DurationFlag{
				Name:  callTimeoutFlag,
				Usage: "Deadline for the status calls",
				Value: 5 * time.Second,
			},
		},
		Action: cmdStatus,
	}
}

func cmdStatus(ctx context.Context, cmd *urfave.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	var creds credentials.TransportCredentials
	if ca, skip := cmd.String(tlsCAFlag), cmd.Bool(insecureSkipVerifyFlag); ca != "" || skip {
		creds, err = tlsutil.ClientCredentials(tlsutil.ClientOptions{
			CAFile:             ca,
			ServerName:         cmd.String(tlsServerNameFlag),
			InsecureSkipVerify: skip,
		})
		if err != nil {
			return err
		}
	}

	addr := cmd.String(addrFlag)
	client, err := grpcpresentation.NewClient(addr, creds)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration(callTimeoutFlag))
	defer cancel()

	status, err := client.GetScorerStatus(ctx)
	if err != nil {
		return fmt.Errorf("fetching scorer status from %s: %w", addr, err)
	}
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("checking health of %s: %w", addr, err)
	}

	return e.encode(statusReport{
		Address:     addr,
		Strategy:    status.Strategy,
		Health:      health.String(),
		Ready:       status.Ready,
		ModelLoaded: status.ModelLoaded,
	})
}
