package commission

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionTestSuite struct {
	suite.Suite
}

func TestCommissionSuite(t *testing.T) {
	suite.Run(t, new(CommissionTestSuite))
}

func (suite *CommissionTestSuite) TestProportional() {
	model := NewProportional(0.001)

	suite.InDelta(10.0, model.Calculate(100, 100), 1e-9)
	// Sign of the quantity is irrelevant.
	suite.InDelta(10.0, model.Calculate(-100, 100), 1e-9)
	suite.Equal(BrokerProportional, model.Broker())
}

func (suite *CommissionTestSuite) TestProportionalDefaultRate() {
	model := NewProportional(0)
	suite.Equal(DefaultProportionalRate, model.Rate)
}

func (suite *CommissionTestSuite) TestInteractiveBrokerMinimum() {
	model := &InteractiveBroker{}

	// 10 shares at $0.005 each is below the $1 minimum.
	suite.InDelta(1.0, model.Calculate(10, 500), 1e-9)
}

func (suite *CommissionTestSuite) TestInteractiveBrokerPerShare() {
	model := &InteractiveBroker{}

	suite.InDelta(5.0, model.Calculate(1000, 100), 1e-9)
}

func (suite *CommissionTestSuite) TestInteractiveBrokerValueCap() {
	model := &InteractiveBroker{}

	// Penny stock: 1000 shares at $0.10; per-share fee $5 exceeds 1% of
	// the $100 notional.
	suite.InDelta(1.0, model.Calculate(1000, 0.10), 1e-9)
}

func (suite *CommissionTestSuite) TestZero() {
	model := &Zero{}
	suite.Equal(0.0, model.Calculate(1000, 100))
}

func (suite *CommissionTestSuite) TestFactory() {
	model, err := NewModel(BrokerProportional, 0.002)
	suite.NoError(err)
	suite.Equal(BrokerProportional, model.Broker())

	model, err = NewModel("", 0)
	suite.NoError(err)
	suite.Equal(BrokerProportional, model.Broker())

	model, err = NewModel(BrokerInteractiveBroker, 0)
	suite.NoError(err)
	suite.Equal(BrokerInteractiveBroker, model.Broker())

	_, err = NewModel("vanguard", 0)
	suite.Error(err)
}
