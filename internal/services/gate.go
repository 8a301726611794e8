package services

import "github.com/isdelr/smarttools-be/internal/models"

// Capability decides what account may do with tool. A nil account is an
// anonymous visitor. The tool's RequiredPoints is the only threshold.
func Capability(account *models.Account, tool models.Tool, earnedToday bool) models.Capability {
	if account == nil {
		return models.Capability{Usable: tool.IsFree}
	}
	return models.Capability{
		Usable:       tool.IsFree || account.Balance >= tool.RequiredPoints,
		CanEarnToday: tool.IsFree && tool.DailyReward > 0 && !earnedToday,
	}
}
