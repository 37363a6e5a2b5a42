package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/service"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
	"github.com/bibhealth/strokerisk/internal/infrastructure/artifact"
	"github.com/bibhealth/strokerisk/internal/infrastructure/config"
)

type scoreOptions struct {
	gender        string
	smokingStatus string
	modelRef      string
	policy        string
	glucose       float64
	bmi           float64
	lowBound      float64
	medBound      float64
	age           int
	hypertension  bool
	heartDisease  bool
	asJSON        bool
}

func newScoreCmd() *cobra.Command {
	cfg := config.Load()
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one patient record",
		Example: `  strokerisk score --age 67 --hypertension --avg-glucose-level 228.7 --bmi 36.6 \
    --gender Male --smoking-status "formerly smoked"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.age, "age", 40, "age in years (1-120)")
	f.BoolVar(&opts.hypertension, "hypertension", false, "patient has hypertension")
	f.BoolVar(&opts.heartDisease, "heart-disease", false, "patient has heart disease")
	f.Float64Var(&opts.glucose, "avg-glucose-level", 100, "average glucose level")
	f.Float64Var(&opts.bmi, "bmi", 25, "body mass index")
	f.StringVar(&opts.gender, "gender", string(model.GenderMale), "Male, Female or Other")
	f.StringVar(&opts.smokingStatus, "smoking-status", string(model.SmokingNever), `"never smoked", "formerly smoked", "smokes" or "Unknown"`)
	f.StringVar(&opts.modelRef, "model", cfg.ModelPath, "model artifact path or redis://key")
	f.StringVar(&opts.policy, "policy", cfg.BandPolicy, "band policy: qualitative or threshold")
	f.Float64Var(&opts.lowBound, "low-bound", cfg.LowBound, "upper edge of the Low Risk band (threshold policy)")
	f.Float64Var(&opts.medBound, "med-bound", cfg.MedBound, "upper edge of the Medium Risk band (threshold policy)")
	f.BoolVar(&opts.asJSON, "json", false, "print the assessment as JSON")

	return cmd
}

func runScore(cmd *cobra.Command, cfg *config.Config, opts *scoreOptions) error {
	source := artifact.RefSource{Files: artifact.FileSource{SearchDirs: []string{"models"}}}
	if cfg.RedisAddr != "" {
		client := artifact.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		source.Redis = artifact.NewRedisSource(client)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := artifact.NewCache(artifact.NewLoader(source, &http.Client{}).Load, logger)

	// Bounds are validated per request, so the configured pair only has to be
	// valid when the flags do not override it.
	thresholds, _ := cfg.Thresholds()
	uc := usecase.NewAssessRisk(cache, service.NewRiskScorer(),
		usecase.PolicyConfig{Default: valueobject.PolicyQualitative, Thresholds: thresholds},
		opts.modelRef,
		usecase.WithLogger(logger),
	)

	req := dto.AssessRiskRequest{
		Age:             opts.age,
		Hypertension:    dto.NewFlag(opts.hypertension),
		HeartDisease:    dto.NewFlag(opts.heartDisease),
		AvgGlucoseLevel: opts.glucose,
		BMI:             opts.bmi,
		Gender:          opts.gender,
		SmokingStatus:   opts.smokingStatus,
		Policy:          opts.policy,
	}
	if opts.policy == valueobject.PolicyThreshold {
		req.LowBound = &opts.lowBound
		req.MedBound = &opts.medBound
	}

	resp, err := uc.Execute(cmd.Context(), req)
	if err != nil {
		return describeScoreError(cmd.ErrOrStderr(), err)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprintf(out, "Stroke Probability: %s\n", resp.ProbabilityPct)
	fmt.Fprintf(out, "Confidence: %s\n", resp.ConfidencePct)
	fmt.Fprintf(out, "Risk Level: %s\n", resp.Band)
	return nil
}

// describeScoreError writes the details of err to w and returns it.
func describeScoreError(w io.Writer, err error) error {
	var (
		validationErr *model.ValidationError
		mismatchErr   *model.InputMismatchError
	)
	switch {
	case errors.As(err, &validationErr):
		for _, v := range validationErr.Violations {
			fmt.Fprintln(w, v)
		}
	case errors.As(err, &mismatchErr):
		fmt.Fprintln(w, mismatchErr.Error())
		fmt.Fprintln(w, "hint:", mismatchErr.Hint())
	}
	return err
}
