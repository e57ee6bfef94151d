package report

import (
	"fmt"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/stretchr/testify/suite"
)

type AnalyticsTestSuite struct {
	suite.Suite
}

func TestAnalyticsSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsTestSuite))
}

func record(date string, asset string, decision types.Decision, price float64) types.TradeRecord {
	return types.TradeRecord{Date: date, Asset: asset, AssetClass: "Stock", Decision: decision, Confidence: 50, Price: price}
}

func (suite *AnalyticsTestSuite) TestAssets() {
	records := []types.TradeRecord{
		record("2024-01-02 22:00", "MSFT", types.DecisionHold, 1),
		record("2024-01-02 22:00", "AAPL", types.DecisionHold, 1),
		record("2024-01-03 22:00", "MSFT", types.DecisionHold, 1),
	}

	suite.Equal([]string{"AAPL", "MSFT"}, Assets(records))
	suite.Empty(Assets(nil))
}

func (suite *AnalyticsTestSuite) TestAssetPerformance() {
	records := []types.TradeRecord{
		record("2024-01-01 22:00", "AAPL", types.DecisionSell, 90),  // flat, ignored
		record("2024-01-02 22:00", "AAPL", types.DecisionBuy, 100),  // opens
		record("2024-01-03 22:00", "AAPL", types.DecisionHold, 105), // holding
		record("2024-01-04 22:00", "AAPL", types.DecisionBuy, 108),  // holding, no re-entry
		record("2024-01-05 22:00", "AAPL", types.DecisionSell, 110), // closes +10
		record("2024-01-06 22:00", "AAPL", types.DecisionHold, 111), // flat, ignored
		record("2024-01-07 22:00", "AAPL", types.DecisionBuy, 120),  // opens
		record("2024-01-08 22:00", "AAPL", types.DecisionSell, 115), // closes -5
		record("2024-01-08 22:00", "MSFT", types.DecisionBuy, 300),
	}

	points := AssetPerformance(records, "AAPL")

	suite.Require().Len(points, 6)
	suite.Equal(PerformancePoint{Date: "2024-01-02", Decision: types.DecisionBuy, Price: 100, CumulativeProfit: 0, PositionValue: 100}, points[0])
	suite.Equal(105.0, points[1].PositionValue)
	suite.Equal(types.DecisionBuy, points[2].Decision)
	suite.Equal(10.0, points[3].CumulativeProfit)
	suite.Equal(0.0, points[3].PositionValue)
	suite.Equal(5.0, points[5].CumulativeProfit)
}

func (suite *AnalyticsTestSuite) TestAssetPerformanceSortsByDate() {
	records := []types.TradeRecord{
		record("2024-01-05 22:00", "AAPL", types.DecisionSell, 110),
		record("2024-01-02 22:00", "AAPL", types.DecisionBuy, 100),
	}

	points := AssetPerformance(records, "AAPL")

	suite.Require().Len(points, 2)
	suite.Equal(10.0, points[1].CumulativeProfit)
}

func (suite *AnalyticsTestSuite) TestAssetPerformanceWindow() {
	records := []types.TradeRecord{record("2024-01-01 22:00", "AAPL", types.DecisionBuy, 100)}
	for i := range 80 {
		records = append(records, record(fmt.Sprintf("2024-02-%02d 22:%02d", 1+i/60, i%60), "AAPL", types.DecisionHold, 100))
	}

	suite.Len(AssetPerformance(records, "AAPL"), PerformanceWindow)
}

func (suite *AnalyticsTestSuite) TestAssetHistoryLatestPerDay() {
	records := []types.TradeRecord{
		record("2024-01-02 10:00", "AAPL", types.DecisionBuy, 100),
		record("2024-01-02 22:00", "AAPL", types.DecisionSell, 101),
		record("2024-01-03 22:00", "AAPL", types.DecisionHold, 102),
	}

	days := AssetHistory(records, "AAPL")

	suite.Require().Len(days, 2)
	suite.Equal(DailyDecision{Date: "2024-01-02", Decision: types.DecisionSell, Confidence: 50, Price: 101}, days[0])
	suite.Equal("2024-01-03", days[1].Date)
}

func (suite *AnalyticsTestSuite) TestAssetHistoryWindow() {
	records := make([]types.TradeRecord, 0)
	for i := range 40 {
		records = append(records, record(fmt.Sprintf("2024-03-%02d", 1+i%28)+" 22:00", "AAPL", types.DecisionHold, float64(i)))
	}

	for i := range 12 {
		records = append(records, record(fmt.Sprintf("2024-04-%02d", 1+i)+" 22:00", "AAPL", types.DecisionHold, float64(i)))
	}

	days := AssetHistory(records, "AAPL")

	suite.Len(days, HistoryWindow)
	suite.Equal("2024-04-12", days[len(days)-1].Date)
}

func (suite *AnalyticsTestSuite) TestAssetAllocation() {
	details := []types.PortfolioDetail{{Asset: "AAPL", CurrentValue: 120}, {Asset: "SPY", CurrentValue: 500}}

	suite.Equal([]Allocation{{Asset: "AAPL", CurrentValue: 120}, {Asset: "SPY", CurrentValue: 500}}, AssetAllocation(details))
	suite.Empty(AssetAllocation(nil))
}

func (suite *AnalyticsTestSuite) TestTail() {
	suite.Equal([]int{3, 4}, Tail([]int{1, 2, 3, 4}, 2))
	suite.Equal([]int{1}, Tail([]int{1}, 2))
}
