package engine

import (
	"github.com/rxtech-lab/argo-signals/internal/portfolio"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Lifecycle callback types for run phases.
// Callbacks returning an error abort the run before the state is saved.

// OnRunStartCallback is called once the state is loaded, before any market data is fetched.
// runID is a unique identifier generated for the run.
type OnRunStartCallback func(runID string, totalAssets int) error

// OnRunEndCallback is called when the run finishes (always called via defer).
type OnRunEndCallback func(runID string, err error)

// OnFetchProgressCallback is called after the history of each symbol has been fetched.
// Calls come from the fetch workers but never overlap, and done increases by one each call.
type OnFetchProgressCallback func(done int, total int, symbol string)

// OnAssetStartCallback is called before an asset is processed.
type OnAssetStartCallback func(index int, symbol string, total int) error

// OnAssetEndCallback is called after an asset has been processed or skipped.
type OnAssetEndCallback func(index int, result AssetResult)

// LifecycleCallbacks holds all lifecycle callback functions for a run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnFetchProgress *OnFetchProgressCallback
	OnAssetStart    *OnAssetStartCallback
	OnAssetEnd      *OnAssetEndCallback
}

// AssetStatus is how the processing of one asset ended.
type AssetStatus string

const (
	// AssetProcessed means a decision was taken and logged.
	AssetProcessed AssetStatus = "processed"
	// AssetSkipped means the asset was left out of this run.
	AssetSkipped AssetStatus = "skipped"
)

// AssetResult is the per-asset outcome of a run.
type AssetResult struct {
	Symbol   string
	Status   AssetStatus
	Signal   types.Signal
	Backtest types.BacktestResult
	Outcome  portfolio.Outcome
	// Err is the skip reason, or the sizing rejection of a processed BUY.
	Err error
}
