package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// ToolServiceProvider defines the interface for the tool catalog.
type ToolServiceProvider interface {
	ListTools(ctx context.Context, account *models.Account) ([]models.ToolView, error)
	GetActiveTool(ctx context.Context, key string) (models.Tool, error)
	GetAllTools(ctx context.Context) ([]models.Tool, error)
	UpdateTool(ctx context.Context, id int64, upd models.ToolUpdate) (models.Tool, error)
	CapabilityFor(ctx context.Context, account *models.Account, tool models.Tool) (models.Capability, error)
	RequireUsable(ctx context.Context, account *models.Account, key string) (models.Tool, error)
	AwardForUse(ctx context.Context, accountID int64, tool models.Tool) (bool, error)
	Invoke(ctx context.Context, account *models.Account, key string, in ToolInput) (models.ToolResult, error)
}

// ToolService serves the catalog and runs tool invocations.
type ToolService struct {
	db       *sqlx.DB
	ledger   LedgerServiceProvider
	accounts AccountServiceProvider
}

// NewToolService creates a new ToolService.
func NewToolService(db *sqlx.DB, ledger LedgerServiceProvider, accounts AccountServiceProvider) *ToolService {
	return &ToolService{db: db, ledger: ledger, accounts: accounts}
}

const toolColumns = "id, tool_key, name_ar, name_en, description_ar, description_en, is_free, required_points, daily_reward, is_active"

// ListTools returns the active catalog annotated for the caller.
func (s *ToolService) ListTools(ctx context.Context, account *models.Account) ([]models.ToolView, error) {
	var tools []models.Tool
	if err := s.db.SelectContext(ctx, &tools, "SELECT "+toolColumns+" FROM tools WHERE is_active = TRUE ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	views := make([]models.ToolView, 0, len(tools))
	for _, tool := range tools {
		capability, err := s.CapabilityFor(ctx, account, tool)
		if err != nil {
			return nil, err
		}
		views = append(views, models.ToolView{Tool: tool, Capability: capability})
	}
	return views, nil
}

// GetActiveTool resolves an invocable tool by key.
func (s *ToolService) GetActiveTool(ctx context.Context, key string) (models.Tool, error) {
	var tool models.Tool
	err := s.db.GetContext(ctx, &tool, s.db.Rebind("SELECT "+toolColumns+" FROM tools WHERE tool_key = ? AND is_active = TRUE"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tool{}, apperror.NotFound("tool not found")
	}
	if err != nil {
		return models.Tool{}, fmt.Errorf("failed to load tool %s: %w", key, err)
	}
	return tool, nil
}

// GetAllTools returns every tool, including inactive ones.
func (s *ToolService) GetAllTools(ctx context.Context) ([]models.Tool, error) {
	tools := []models.Tool{}
	if err := s.db.SelectContext(ctx, &tools, "SELECT "+toolColumns+" FROM tools ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

func (s *ToolService) getTool(ctx context.Context, id int64) (models.Tool, error) {
	var tool models.Tool
	err := s.db.GetContext(ctx, &tool, s.db.Rebind("SELECT "+toolColumns+" FROM tools WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tool{}, apperror.NotFound("tool not found")
	}
	return tool, err
}

// UpdateTool applies a partial edit. Negative thresholds and rewards are
// clamped to zero.
func (s *ToolService) UpdateTool(ctx context.Context, id int64, upd models.ToolUpdate) (models.Tool, error) {
	tool, err := s.getTool(ctx, id)
	if err != nil {
		return models.Tool{}, err
	}

	setText := func(dst *string, src *string) {
		if src != nil {
			if v := strings.TrimSpace(*src); v != "" {
				*dst = v
			}
		}
	}
	setText(&tool.NameAr, upd.NameAr)
	setText(&tool.NameEn, upd.NameEn)
	if upd.DescriptionAr != nil {
		tool.DescriptionAr = strings.TrimSpace(*upd.DescriptionAr)
	}
	if upd.DescriptionEn != nil {
		tool.DescriptionEn = strings.TrimSpace(*upd.DescriptionEn)
	}
	if upd.IsFree != nil {
		tool.IsFree = *upd.IsFree
	}
	if upd.IsActive != nil {
		tool.IsActive = *upd.IsActive
	}
	if upd.RequiredPoints != nil {
		tool.RequiredPoints = max(*upd.RequiredPoints, 0)
	}
	if upd.DailyReward != nil {
		tool.DailyReward = max(*upd.DailyReward, 0)
	}

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE tools SET name_ar = :name_ar, name_en = :name_en,
			description_ar = :description_ar, description_en = :description_en,
			is_free = :is_free, required_points = :required_points,
			daily_reward = :daily_reward, is_active = :is_active
		WHERE id = :id`, tool)
	if err != nil {
		return models.Tool{}, fmt.Errorf("failed to update tool %d: %w", id, err)
	}
	return tool, nil
}

// CapabilityFor evaluates the gate, looking up today's award when needed.
func (s *ToolService) CapabilityFor(ctx context.Context, account *models.Account, tool models.Tool) (models.Capability, error) {
	earned := false
	if account != nil && tool.IsFree && tool.DailyReward > 0 {
		var err error
		earned, err = s.ledger.EarnedToday(ctx, account.ID, tool.Key)
		if err != nil {
			return models.Capability{}, err
		}
	}
	return Capability(account, tool, earned), nil
}

// RequireUsable resolves an active tool and checks the account may use it.
func (s *ToolService) RequireUsable(ctx context.Context, account *models.Account, key string) (models.Tool, error) {
	tool, err := s.GetActiveTool(ctx, key)
	if err != nil {
		return models.Tool{}, err
	}
	if account == nil {
		return models.Tool{}, apperror.Unauthenticated("login required")
	}
	if !Capability(account, tool, false).Usable {
		return models.Tool{}, apperror.Forbidden(fmt.Sprintf("you need %d points to use this tool", tool.RequiredPoints))
	}
	return tool, nil
}

// AwardForUse grants the tool's daily reward when it has one.
func (s *ToolService) AwardForUse(ctx context.Context, accountID int64, tool models.Tool) (bool, error) {
	if !tool.IsFree || tool.DailyReward <= 0 {
		return false, nil
	}
	return s.ledger.Award(ctx, accountID, tool.Key, tool.DailyReward)
}

// Invoke runs a text tool for the account and credits the daily reward.
func (s *ToolService) Invoke(ctx context.Context, account *models.Account, key string, in ToolInput) (models.ToolResult, error) {
	tool, err := s.RequireUsable(ctx, account, key)
	if err != nil {
		return models.ToolResult{}, err
	}

	generate, ok := Generators[tool.Key]
	if !ok {
		return models.ToolResult{}, apperror.Validation("tool " + tool.Key + " has its own endpoint")
	}
	output, err := generate(*account, in)
	if err != nil {
		return models.ToolResult{}, err
	}

	awarded, err := s.AwardForUse(ctx, account.ID, tool)
	if err != nil {
		return models.ToolResult{}, err
	}

	fresh, err := s.accounts.GetAccountByID(ctx, account.ID)
	if err != nil {
		return models.ToolResult{}, err
	}

	return models.ToolResult{Result: output, PointsAwarded: awarded, UserPoints: fresh.Balance}, nil
}
