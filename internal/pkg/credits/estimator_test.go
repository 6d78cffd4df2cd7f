package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

func TestCostMarketplace(t *testing.T) {
	total, breakdown, err := Cost(EstimateParams{ServiceType: models.SERVICE_MARKETPLACE, ItemCount: 100})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), total)
	assert.Len(t, breakdown, 1)
	assert.Equal(t, int64(100), breakdown[0].Cost)
}

func TestCostFacebookPostsIsPricier(t *testing.T) {
	posts, _, err := Cost(EstimateParams{ServiceType: models.SERVICE_FACEBOOK_POSTS, ItemCount: 50})
	assert.NoError(t, err)
	comments, _, err := Cost(EstimateParams{ServiceType: models.SERVICE_FACEBOOK_COMMENTS, ItemCount: 50})
	assert.NoError(t, err)

	assert.Equal(t, int64(100), posts)
	assert.Equal(t, int64(50), comments)
	assert.Greater(t, posts, comments)
}

func TestCostAnalysisHasBaseFee(t *testing.T) {
	// zero items still pays the flat run fee
	total, breakdown, err := Cost(EstimateParams{ServiceType: models.SERVICE_AI_ANALYSIS, ItemCount: 0})
	assert.NoError(t, err)
	assert.Equal(t, int64(CostPerAnalysisRun), total)
	assert.Len(t, breakdown, 2)

	// 101 items start a second block of 100
	total, _, err = Cost(EstimateParams{ServiceType: models.SERVICE_AI_ANALYSIS, ItemCount: 101})
	assert.NoError(t, err)
	assert.Equal(t, int64(CostPerAnalysisRun+2*CostPerAnalysisItem100), total)
}

func TestCostMonotonicInItemCount(t *testing.T) {
	services := []string{
		models.SERVICE_MARKETPLACE,
		models.SERVICE_FACEBOOK_POSTS,
		models.SERVICE_FACEBOOK_COMMENTS,
		models.SERVICE_AI_ANALYSIS,
	}
	for _, st := range services {
		var prev int64 = -1
		for _, n := range []int{0, 1, 50, 99, 100, 101, 500} {
			total, _, err := Cost(EstimateParams{ServiceType: st, ItemCount: n})
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, total, prev, "service %s item count %d", st, n)
			prev = total
		}
	}
}

func TestCostNegativeCountsClampToZero(t *testing.T) {
	total, _, err := Cost(EstimateParams{ServiceType: models.SERVICE_MARKETPLACE, ItemCount: -10})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCostUnknownServiceType(t *testing.T) {
	_, _, err := Cost(EstimateParams{ServiceType: "teleportation", ItemCount: 10})
	assert.Error(t, err)
}

func TestEstimateForShortfall(t *testing.T) {
	est, err := EstimateFor(EstimateParams{ServiceType: models.SERVICE_MARKETPLACE, ItemCount: 100}, 40)
	assert.NoError(t, err)
	assert.False(t, est.HasEnough)
	assert.Equal(t, int64(60), est.Shortfall)

	est, err = EstimateFor(EstimateParams{ServiceType: models.SERVICE_MARKETPLACE, ItemCount: 100}, 100)
	assert.NoError(t, err)
	assert.True(t, est.HasEnough)
	assert.Equal(t, int64(0), est.Shortfall)
}
