package scoring

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// RSIScoring selects how the RSI rule contributes to a score.
type RSIScoring string

const (
	// RSIScoringFlat adds the full rule weight when RSI is beyond a threshold.
	RSIScoringFlat RSIScoring = "flat"
	// RSIScoringGraded adds a share of the rule weight proportional to the distance past the threshold.
	RSIScoringGraded RSIScoring = "graded"
)

// Weighting selects whether scores are multiplied by backtested accuracy.
type Weighting string

const (
	WeightingRaw              Weighting = "raw"
	WeightingBacktestWeighted Weighting = "backtest_weighted"
)

// RuleWeight is the contribution of one rule.
const RuleWeight = 25.0

// MaxConfidence caps the reported confidence.
const MaxConfidence = 100

// Rules configures the rule checks.
type Rules struct {
	RSIOversold   float64    `yaml:"rsi_oversold" json:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
	RSIOverbought float64    `yaml:"rsi_overbought" json:"rsi_overbought" default:"70" validate:"gtfield=RSIOversold,lt=100"`
	RSIScoring    RSIScoring `yaml:"rsi_scoring" json:"rsi_scoring" default:"flat" validate:"oneof=flat graded" jsonschema:"enum=flat,enum=graded"`
	UseBollinger  bool       `yaml:"use_bollinger" json:"use_bollinger" default:"true"`
}

// DefaultRules returns the 30/70 flat RSI rules with Bollinger enabled.
func DefaultRules() Rules {
	return Rules{
		RSIOversold:   30,
		RSIOverbought: 70,
		RSIScoring:    RSIScoringFlat,
		UseBollinger:  true,
	}
}

// Scores are the buy and sell scores of one snapshot.
type Scores struct {
	Buy     float64
	Sell    float64
	Reasons []string
}

// Scorer converts indicator snapshots into decisions.
type Scorer struct {
	rules     Rules
	weighting Weighting
}

// NewScorer creates a scorer.
func NewScorer(rules Rules, weighting Weighting) *Scorer {
	return &Scorer{
		rules:     rules,
		weighting: weighting,
	}
}

// Weighting returns the confidence weighting policy.
func (s *Scorer) Weighting() Weighting {
	return s.weighting
}

// RawScores applies the rule checks to snap without any weighting.
// An incomplete snapshot returns an ErrCodeIndicatorUndefined error.
func (s *Scorer) RawScores(snap types.IndicatorSnapshot) (Scores, error) {
	if !snap.Complete(s.rules.UseBollinger) {
		return Scores{}, errors.Newf(errors.ErrCodeIndicatorUndefined, "indicators undefined on %s", snap.Date.Format("2006-01-02"))
	}

	var scores Scores

	switch {
	case snap.RSI < s.rules.RSIOversold:
		scores.Buy += s.rsiContribution(s.rules.RSIOversold - snap.RSI)
		scores.Reasons = append(scores.Reasons, fmt.Sprintf("rsi %.2f below %.0f", snap.RSI, s.rules.RSIOversold))
	case snap.RSI > s.rules.RSIOverbought:
		scores.Sell += s.rsiContribution(snap.RSI - s.rules.RSIOverbought)
		scores.Reasons = append(scores.Reasons, fmt.Sprintf("rsi %.2f above %.0f", snap.RSI, s.rules.RSIOverbought))
	}

	if snap.EMAFast > snap.EMASlow {
		scores.Buy += RuleWeight
		scores.Reasons = append(scores.Reasons, "ema fast above slow")
	} else {
		scores.Sell += RuleWeight
		scores.Reasons = append(scores.Reasons, "ema fast at or below slow")
	}

	if snap.MACDLine > snap.MACDSignal {
		scores.Buy += RuleWeight
		scores.Reasons = append(scores.Reasons, "macd above signal")
	} else {
		scores.Sell += RuleWeight
		scores.Reasons = append(scores.Reasons, "macd at or below signal")
	}

	if s.rules.UseBollinger {
		switch {
		case snap.Close < snap.BollingerLower:
			scores.Buy += RuleWeight
			scores.Reasons = append(scores.Reasons, "close below lower band")
		case snap.Close > snap.BollingerUpper:
			scores.Sell += RuleWeight
			scores.Reasons = append(scores.Reasons, "close above upper band")
		}
	}

	return scores, nil
}

// rsiContribution returns the RSI rule score for a reading distance points past its threshold.
func (s *Scorer) rsiContribution(distance float64) float64 {
	if s.rules.RSIScoring == RSIScoringGraded {
		return distance / 30 * RuleWeight
	}

	return RuleWeight
}

// Score produces today's signal from the latest snapshot. Under backtest weighting the buy and
// sell scores are multiplied by the accuracies in result; a None result leaves them unweighted.
func (s *Scorer) Score(symbol string, snap types.IndicatorSnapshot, result optional.Option[types.BacktestResult]) (types.Signal, error) {
	scores, err := s.RawScores(snap)
	if err != nil {
		return types.Signal{}, err
	}

	if s.weighting == WeightingBacktestWeighted {
		if accuracy, takeErr := result.Take(); takeErr == nil {
			scores.Buy *= accuracy.BuyAccuracy
			scores.Sell *= accuracy.SellAccuracy
		}
	}

	decision, confidence := Decide(scores.Buy, scores.Sell)

	return types.Signal{
		Date:       snap.Date,
		Symbol:     symbol,
		Decision:   decision,
		Confidence: confidence,
		BuyScore:   scores.Buy,
		SellScore:  scores.Sell,
		Reasons:    scores.Reasons,
	}, nil
}

// Decide applies the decision rule: the strictly larger positive score wins,
// otherwise HOLD with confidence 0. Confidence is truncated and capped at 100.
func Decide(buy, sell float64) (types.Decision, int) {
	switch {
	case buy > sell && buy > 0:
		return types.DecisionBuy, confidence(buy)
	case sell > buy && sell > 0:
		return types.DecisionSell, confidence(sell)
	default:
		return types.DecisionHold, 0
	}
}

func confidence(score float64) int {
	return min(int(math.Floor(score)), MaxConfidence)
}
