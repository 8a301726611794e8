package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findTool(t *testing.T, views []models.ToolView, key string) models.ToolView {
	t.Helper()
	for _, v := range views {
		if v.Key == key {
			return v
		}
	}
	t.Fatalf("tool %s not listed", key)
	return models.ToolView{}
}

func TestSmartTitlesDailyCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	res, err := env.tools.Invoke(ctx, &alice, models.ToolSmartTitles, ToolInput{Topic: "Go"})
	require.NoError(t, err)
	assert.True(t, res.PointsAwarded)
	assert.EqualValues(t, 25, res.UserPoints)
	assert.Contains(t, res.Result["titles"], "Go")

	alice = env.reload(t, alice.ID)
	views, err := env.tools.ListTools(ctx, &alice)
	require.NoError(t, err)
	assert.False(t, findTool(t, views, models.ToolSmartTitles).CanEarnToday)
	assert.True(t, findTool(t, views, models.ToolSmartEmoji).CanEarnToday)

	res, err = env.tools.Invoke(ctx, &alice, models.ToolSmartTitles, ToolInput{Topic: "Go"})
	require.NoError(t, err)
	assert.False(t, res.PointsAwarded)
	assert.EqualValues(t, 25, res.UserPoints)

	env.clock.Advance(24 * time.Hour)
	views, err = env.tools.ListTools(ctx, &alice)
	require.NoError(t, err)
	assert.True(t, findTool(t, views, models.ToolSmartTitles).CanEarnToday)
}

func TestAdvancedTitlesThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	env.setBalance(t, alice.ID, 199)
	alice = env.reload(t, alice.ID)
	_, err := env.tools.Invoke(ctx, &alice, models.ToolAdvancedTitles, ToolInput{Topic: "Go"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	views, err := env.tools.ListTools(ctx, &alice)
	require.NoError(t, err)
	assert.False(t, findTool(t, views, models.ToolAdvancedTitles).Usable)

	env.setBalance(t, alice.ID, 200)
	alice = env.reload(t, alice.ID)
	res, err := env.tools.Invoke(ctx, &alice, models.ToolAdvancedTitles, ToolInput{Topic: "Go", Language: "en"})
	require.NoError(t, err)
	assert.False(t, res.PointsAwarded)
	assert.EqualValues(t, 200, res.UserPoints)
	assert.Equal(t, "professional", res.Result["style"])
}

func TestAdminEditedThresholdTakesEffect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	env.setBalance(t, alice.ID, 150)
	alice = env.reload(t, alice.ID)

	tool, err := env.tools.GetActiveTool(ctx, models.ToolAdvancedTitles)
	require.NoError(t, err)
	required := int64(100)
	_, err = env.tools.UpdateTool(ctx, tool.ID, models.ToolUpdate{RequiredPoints: &required})
	require.NoError(t, err)

	_, err = env.tools.Invoke(ctx, &alice, models.ToolAdvancedTitles, ToolInput{Topic: "Go"})
	assert.NoError(t, err)
}

func TestListToolsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	views, err := env.tools.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, views, 5)

	for _, v := range views {
		assert.Equal(t, v.IsFree, v.Usable, v.Key)
		assert.False(t, v.CanEarnToday, v.Key)
	}
}

func TestInvokeRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	_, err := env.tools.Invoke(ctx, nil, models.ToolSmartTitles, ToolInput{Topic: "Go"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))

	_, err = env.tools.Invoke(ctx, &alice, "no_such_tool", ToolInput{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = env.tools.Invoke(ctx, &alice, models.ToolSmartTitles, ToolInput{Topic: " "})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Zero(t, env.reload(t, alice.ID).Balance, "failed generation must not award")

	_, err = env.tools.Invoke(ctx, &alice, models.ToolTasks, ToolInput{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestInactiveToolIsHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	tool, err := env.tools.GetActiveTool(ctx, models.ToolSmartEmoji)
	require.NoError(t, err)
	inactive := false
	_, err = env.tools.UpdateTool(ctx, tool.ID, models.ToolUpdate{IsActive: &inactive})
	require.NoError(t, err)

	views, err := env.tools.ListTools(ctx, &alice)
	require.NoError(t, err)
	assert.Len(t, views, 4)

	_, err = env.tools.Invoke(ctx, &alice, models.ToolSmartEmoji, ToolInput{Text: "hi"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdateToolClampsNegatives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tool, err := env.tools.GetActiveTool(ctx, models.ToolSmartTitles)
	require.NoError(t, err)
	negative := int64(-5)
	name := "  "
	updated, err := env.tools.UpdateTool(ctx, tool.ID, models.ToolUpdate{
		RequiredPoints: &negative,
		DailyReward:    &negative,
		NameEn:         &name,
	})
	require.NoError(t, err)
	assert.Zero(t, updated.RequiredPoints)
	assert.Zero(t, updated.DailyReward)
	assert.Equal(t, tool.NameEn, updated.NameEn)

	_, err = env.tools.UpdateTool(ctx, 999, models.ToolUpdate{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSmartEmojiIsDeterministic(t *testing.T) {
	account := models.Account{Locale: "en"}
	a, err := smartEmoji(account, ToolInput{Text: "launch day", Mood: "excited"})
	require.NoError(t, err)
	b, err := smartEmoji(account, ToolInput{Text: "launch day", Mood: "excited"})
	require.NoError(t, err)
	assert.Equal(t, a["emojis"], b["emojis"])

	picks := a["emojis"].([]string)
	assert.Len(t, picks, emojiPicks)
	seen := map[string]bool{}
	for _, e := range picks {
		assert.False(t, seen[e], "duplicate emoji %s", e)
		seen[e] = true
	}

	c, err := smartEmoji(account, ToolInput{Text: "x", Mood: "grumpy"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", c["mood"])
}
