package cli

import (
	"context"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/scamshield/internal/domain/service"
)

type indicatorList struct {
	Count      int      `json:"count" yaml:"count"`
	Indicators []string `json:"indicators" yaml:"indicators"`
}

func indicatorsCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "indicators",
		Usage: "Lists the fraud indicators the lexical scorer matches",
		Action: func(_ context.Context, cmd *urfave.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			list := service.Indicators()
			return e.encode(indicatorList{Count: len(list), Indicators: list})
		},
	}
}
