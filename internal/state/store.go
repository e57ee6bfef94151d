package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/utils"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const (
	cashPlaces     = 2
	quantityPlaces = 4
	pricePlaces    = 2
)

// snapshot is the on-disk shape. Dinheiro and bare-number positions are the legacy shape.
type snapshot struct {
	Version       string                     `json:"version,omitempty"`
	AvailableCash *float64                   `json:"available_cash,omitempty"`
	Dinheiro      *float64                   `json:"dinheiro,omitempty"`
	Portfolio     map[string]json.RawMessage `json:"portfolio"`
}

type savedSnapshot struct {
	Version       string                    `json:"version"`
	AvailableCash float64                   `json:"available_cash"`
	Portfolio     map[string]types.Position `json:"portfolio"`
}

// Store loads and persists the portfolio state of one universe.
type Store struct {
	path           string
	universe       types.Universe
	initialCapital float64
	logger         *logger.Logger
}

// NewStore creates a store for the snapshot at path.
func NewStore(path string, universe types.Universe, initialCapital float64, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Store{
		path:           path,
		universe:       universe,
		initialCapital: initialCapital,
		logger:         log,
	}
}

// Path returns the snapshot path.
func (s *Store) Path() string {
	return s.path
}

// Fresh returns the default state: initial capital and a zero position for every universe asset.
func (s *Store) Fresh() types.PortfolioState {
	return types.NewPortfolioState(s.initialCapital, s.universe.Symbols())
}

// Load reads the snapshot. An absent file yields Fresh. A snapshot that cannot be
// interpreted is logged and replaced by Fresh. Only an unreadable existing file is an error.
func (s *Store) Load() (types.PortfolioState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("No state snapshot found, starting fresh", zap.String("path", s.path), zap.Float64("initial_capital", s.initialCapital))

		return s.Fresh(), nil
	}

	if err != nil {
		return types.PortfolioState{}, errors.Wrapf(errors.ErrCodeStateReadFailed, err, "failed to read state snapshot %s", s.path)
	}

	state, err := s.decode(data)
	if err != nil {
		s.logger.Warn("State snapshot is corrupt, starting fresh", zap.String("path", s.path), zap.Error(err))

		return s.Fresh(), nil
	}

	return state, nil
}

func (s *Store) decode(data []byte) (types.PortfolioState, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.PortfolioState{}, errors.Wrap(errors.ErrCodeStateCorrupt, "invalid snapshot json", err)
	}

	if err := version.CheckSnapshotCompatibility(version.GetVersion(), snap.Version); err != nil {
		s.logger.Warn("State snapshot version is not compatible, loading anyway", zap.String("snapshot_version", snap.Version), zap.Error(err))
	}

	cash := snap.AvailableCash
	if cash == nil {
		cash = snap.Dinheiro
	}

	if cash == nil {
		return types.PortfolioState{}, errors.New(errors.ErrCodeStateCorrupt, "snapshot has no available_cash")
	}

	if *cash < 0 {
		return types.PortfolioState{}, errors.Newf(errors.ErrCodeStateCorrupt, "snapshot has negative available_cash %f", *cash)
	}

	if snap.Portfolio == nil {
		return types.PortfolioState{}, errors.New(errors.ErrCodeStateCorrupt, "snapshot has no portfolio")
	}

	state := s.Fresh()
	state.AvailableCash = *cash

	for symbol, raw := range snap.Portfolio {
		if !s.universe.Contains(symbol) {
			s.logger.Debug("Dropping position outside the universe", zap.String("symbol", symbol))

			continue
		}

		position, err := decodePosition(raw)
		if err != nil {
			s.logger.Warn("Dropping unreadable position", zap.String("symbol", symbol), zap.Error(err))

			continue
		}

		state.Positions[symbol] = position
	}

	return state, nil
}

// decodePosition accepts {"quantity": q, "average_price": p} or a bare legacy quantity.
func decodePosition(raw json.RawMessage) (types.Position, error) {
	var position types.Position

	var legacyQuantity float64
	if err := json.Unmarshal(raw, &legacyQuantity); err == nil {
		position.Quantity = legacyQuantity
	} else if err := json.Unmarshal(raw, &position); err != nil {
		return types.Position{}, fmt.Errorf("position is neither a number nor an object: %w", err)
	}

	if position.Quantity < 0 || position.AveragePrice < 0 {
		return types.Position{}, fmt.Errorf("negative quantity %f or average price %f", position.Quantity, position.AveragePrice)
	}

	if position.Quantity == 0 {
		position.AveragePrice = 0
	}

	return position, nil
}

// Persisted returns state as it will be written: cash to 2 places, quantities to 4, average prices to 2.
func Persisted(state types.PortfolioState) types.PortfolioState {
	out := state.Clone()
	out.AvailableCash = utils.RoundHalfAway(out.AvailableCash, cashPlaces)

	for symbol, position := range out.Positions {
		position.Quantity = utils.RoundHalfAway(position.Quantity, quantityPlaces)
		position.AveragePrice = utils.RoundHalfAway(position.AveragePrice, pricePlaces)

		if position.Quantity == 0 {
			position.AveragePrice = 0
		}

		out.Positions[symbol] = position
	}

	return out
}

// Save writes the rounded state atomically and returns what was written.
func (s *Store) Save(state types.PortfolioState) (types.PortfolioState, error) {
	persisted := Persisted(state)

	data, err := json.MarshalIndent(savedSnapshot{
		Version:       version.GetVersion(),
		AvailableCash: persisted.AvailableCash,
		Portfolio:     persisted.Positions,
	}, "", "  ")
	if err != nil {
		return types.PortfolioState{}, errors.Wrap(errors.ErrCodeStateWriteFailed, "failed to encode state snapshot", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return types.PortfolioState{}, errors.Wrapf(errors.ErrCodeStateWriteFailed, err, "failed to write state snapshot %s", s.path)
	}

	return persisted, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
