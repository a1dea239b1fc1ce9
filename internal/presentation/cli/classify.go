package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/scamshield/internal/application/dto"
	"github.com/bibbank/scamshield/internal/application/usecase"
	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/infrastructure/config"
	"github.com/bibbank/scamshield/internal/infrastructure/messaging"
	"github.com/bibbank/scamshield/internal/infrastructure/scoring"
)

const (
	textFlag          = "text"
	channelFlag       = "channel"
	strategyFlag      = "strategy"
	modelDirFlag      = "model-dir"
	maxTokensFlag     = "max-tokens"
	sharedLibraryFlag = "onnxruntime-lib"
	thresholdFlag     = "threshold"
	timeoutFlag       = "timeout"
)

func channelFlagDef() urfave.Flag {
	return &urfave.StringFlag{
		Name:  channelFlag,
		Usage: "Channel the text arrived on [EMAIL, SMS, CALL]",
	}
}

// scorerFlags configure the local classification pipeline. Defaults follow the
// service configuration and honour the same environment variables.
func scorerFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:    strategyFlag,
			Usage:   "Scoring strategy [lexical, model]",
			Value:   service.StrategyLexical,
			Sources: urfave.EnvVars("SCORER_STRATEGY"),
		},
		&urfave.StringFlag{
			Name:    modelDirFlag,
			Usage:   "Model bundle directory (required for the model strategy)",
			Sources: urfave.EnvVars("MODEL_DIR"),
		},
		&urfave.IntFlag{
			Name:    maxTokensFlag,
			Usage:   "Maximum token sequence length for the model strategy",
			Value:   512,
			Sources: urfave.EnvVars("MAX_TOKENS"),
		},
		&urfave.StringFlag{
			Name:    sharedLibraryFlag,
			Usage:   "Path to the ONNX Runtime shared library (optional)",
			Sources: urfave.EnvVars("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
		},
		&urfave.FloatFlag{
			Name:    thresholdFlag,
			Usage:   "Risk score at or above which a message is flagged",
			Value:   0.7,
			Sources: urfave.EnvVars("RISK_FLAG_THRESHOLD"),
		},
		&urfave.DurationFlag{
			Name:    timeoutFlag,
			Usage:   "Per-message classification deadline",
			Value:   2 * time.Second,
			Sources: urfave.EnvVars("CLASSIFY_TIMEOUT"),
		},
	}
}

func classifyCmd() *urfave.Command {
	flags := []urfave.Flag{
		&urfave.StringFlag{
			Name:  textFlag,
			Usage: "Text to classify (optional, read from stdin when not set)",
		},
		channelFlagDef(),
	}
	return &urfave.Command{
		Name:    "classify",
		Aliases: []string{"c"},
		Usage:   "Classifies a single message",
		Flags:   append(flags, scorerFlags()...),
		Action:  cmdClassify,
	}
}

func cmdClassify(ctx context.Context, cmd *urfave.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	text := cmd.String(textFlag)
	if !cmd.IsSet(textFlag) {
		b, err := io.ReadAll(e.in)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(b), "\r\n")
	}

	uc, closeScorer, err := newClassifyText(cmd, e.logger)
	if err != nil {
		return err
	}
	defer closeScorer()

	resp, err := uc.Execute(ctx, dto.ClassifyTextRequest{
		Text:    text,
		Channel: cmd.String(channelFlag),
	})
	if err != nil {
		return err
	}
	return e.encode(resp)
}

// newClassifyText builds a local classification pipeline from the scorer flags.
// Events go to the log publisher.
func newClassifyText(cmd *urfave.Command, logger *slog.Logger) (*usecase.ClassifyText, func(), error) {
	cfg := config.Default()
	cfg.Scorer = config.ScorerConfig{
		Strategy:          cmd.String(strategyFlag),
		ModelDir:          cmd.String(modelDirFlag),
		MaxTokens:         int(cmd.Int(maxTokensFlag)),
		SharedLibraryPath: cmd.String(sharedLibraryFlag),
	}
	cfg.RiskFlagThreshold = cmd.Float(thresholdFlag)
	cfg.ClassifyTimeout = cmd.Duration(timeoutFlag)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	scorer, initialize, err := scoring.NewScorer(cfg.Scorer, logger)
	if err != nil {
		return nil, nil, err
	}
	closer, err := initialize()
	if err != nil {
		return nil, nil, err
	}
	closeScorer := func() {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to release scorer", "error", err)
		}
	}

	uc, err := usecase.NewClassifyText(
		service.NewClassifier(scorer, logger),
		messaging.NewLogPublisher(logger),
		logger,
		usecase.ClassifyTextConfig{
			Timeout:       cfg.ClassifyTimeout,
			FlagThreshold: cfg.RiskFlagThreshold,
		},
	)
	if err != nil {
		closeScorer()
		return nil, nil, err
	}
	return uc, closeScorer, nil
}
