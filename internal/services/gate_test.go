package services

import (
	"testing"

	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCapability(t *testing.T) {
	free := models.Tool{Key: "smart_titles", IsFree: true, DailyReward: 25}
	freeNoReward := models.Tool{Key: "notes", IsFree: true}
	advanced := models.Tool{Key: "advanced_titles", RequiredPoints: 200}
	image := models.Tool{Key: "user_image", RequiredPoints: 500}

	balance := func(n int64) *models.Account { return &models.Account{ID: 1, Balance: n} }

	cases := []struct {
		name    string
		account *models.Account
		tool    models.Tool
		earned  bool
		want    models.Capability
	}{
		{"anonymous free", nil, free, false, models.Capability{Usable: true}},
		{"anonymous gated", nil, advanced, false, models.Capability{}},
		{"free not yet earned", balance(0), free, false, models.Capability{Usable: true, CanEarnToday: true}},
		{"free already earned", balance(0), free, true, models.Capability{Usable: true}},
		{"free without reward", balance(0), freeNoReward, false, models.Capability{Usable: true}},
		{"advanced at 199", balance(199), advanced, false, models.Capability{}},
		{"advanced at 200", balance(200), advanced, false, models.Capability{Usable: true}},
		{"image at 499", balance(499), image, false, models.Capability{}},
		{"image at 500", balance(500), image, false, models.Capability{Usable: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Capability(tc.account, tc.tool, tc.earned))
		})
	}
}

func TestFreeToolAlwaysUsable(t *testing.T) {
	free := models.Tool{IsFree: true, RequiredPoints: 10_000, DailyReward: 25}
	for _, b := range []int64{0, 1, 199, 200, 5000} {
		assert.True(t, Capability(&models.Account{Balance: b}, free, b%2 == 0).Usable)
	}
}
