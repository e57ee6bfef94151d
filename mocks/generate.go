package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-signals/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-signals/internal/indicator Indicator
