package database

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// SeedOptions configures the initial data.
type SeedOptions struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	Now           time.Time
}

// AdminStartingBalance is the balance granted to the seeded admin account.
const AdminStartingBalance = 1000

// DefaultTools is the initial tool catalog.
var DefaultTools = []models.Tool{
	{
		Key:           models.ToolSmartTitles,
		NameAr:        "أداة العناوين الذكية",
		NameEn:        "Smart Titles Tool",
		DescriptionAr: "أداة لإنشاء عناوين ذكية وجذابة لمحتواك",
		DescriptionEn: "Tool for creating smart and attractive titles for your content",
		IsFree:        true,
		DailyReward:   25,
		IsActive:      true,
	},
	{
		Key:           models.ToolTasks,
		NameAr:        "أداة المهام",
		NameEn:        "Tasks Tool",
		DescriptionAr: "أداة لإدارة وتتبع مهامك اليومية",
		DescriptionEn: "Tool for managing and tracking your daily tasks",
		IsFree:        true,
		DailyReward:   25,
		IsActive:      true,
	},
	{
		Key:           models.ToolSmartEmoji,
		NameAr:        "أداة الإيموجي الذكية",
		NameEn:        "Smart Emoji Tool",
		DescriptionAr: "أداة لإنشاء واختيار الإيموجي المناسب لمحتواك",
		DescriptionEn: "Tool for creating and selecting appropriate emojis for your content",
		IsFree:        true,
		DailyReward:   25,
		IsActive:      true,
	},
	{
		Key:            models.ToolAdvancedTitles,
		NameAr:         "أداة العناوين المطورة",
		NameEn:         "Advanced Titles Tool",
		DescriptionAr:  "أداة متقدمة لإنشاء عناوين احترافية ومتطورة",
		DescriptionEn:  "Advanced tool for creating professional and sophisticated titles",
		RequiredPoints: 200,
		IsActive:       true,
	},
	{
		Key:            models.ToolUserImage,
		NameAr:         "أداة عرض الصورة",
		NameEn:         "User Image Display Tool",
		DescriptionAr:  "أداة لعرض صورتك في الموقع لمدة يوم واحد",
		DescriptionEn:  "Tool to display your image on the website for one day",
		RequiredPoints: 500,
		IsActive:       true,
	},
}

var welcomePosts = []models.PostInput{
	{
		TitleAr:   "مرحباً بكم في موقع الأدوات الذكية",
		TitleEn:   "Welcome to Smart Tools Website",
		ContentAr: "نحن سعداء لانضمامكم إلى موقعنا الجديد للأدوات الذكية. هنا ستجدون مجموعة متنوعة من الأدوات المفيدة التي ستساعدكم في أعمالكم اليومية.",
		ContentEn: "We are happy to have you join our new smart tools website. Here you will find a variety of useful tools that will help you in your daily work.",
	},
	{
		TitleAr:   "كيفية كسب النقاط واستخدام الأدوات المتقدمة",
		TitleEn:   "How to Earn Points and Use Advanced Tools",
		ContentAr: "يمكنكم كسب 25 نقطة يومياً من كل أداة مجانية. عند الوصول إلى 200 نقطة، ستفتح لكم أداة العناوين المطورة، وعند 500 نقطة يمكنكم عرض صورتكم في الموقع.",
		ContentEn: "You can earn 25 points daily from each free tool. When you reach 200 points, the advanced titles tool will unlock, and at 500 points you can display your image on the website.",
	},
	{
		TitleAr:   "نصائح لاستخدام الأدوات بفعالية",
		TitleEn:   "Tips for Using Tools Effectively",
		ContentAr: "للحصول على أفضل النتائج من أدواتنا، ننصحكم بالاستخدام المنتظم والتفاعل مع المجتمع من خلال التعليقات.",
		ContentEn: "To get the best results from our tools, we recommend regular use and community interaction through comments.",
	},
}

// Seed inserts the admin account, the tool catalog and the welcome posts.
// Rows that already exist are left untouched, so Seed is safe to rerun.
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions) error {
	now := opts.Now.UTC().Truncate(time.Second)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var admins int
	if err := tx.GetContext(ctx, &admins, "SELECT COUNT(*) FROM accounts WHERE is_admin = TRUE"); err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins == 0 && opts.AdminUsername != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO accounts (username, email, password_hash, balance, is_admin, locale, created_at)
			VALUES (?, ?, ?, ?, TRUE, ?, ?)`),
			opts.AdminUsername, opts.AdminEmail, string(hash), AdminStartingBalance, models.LocaleArabic, now)
		if err != nil {
			return fmt.Errorf("failed to create admin account: %w", err)
		}
		log.Info().Str("username", opts.AdminUsername).Msg("Seeded admin account")
	}

	for _, tool := range DefaultTools {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO tools (tool_key, name_ar, name_en, description_ar, description_en, is_free, required_points, daily_reward, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (tool_key) DO NOTHING`),
			tool.Key, tool.NameAr, tool.NameEn, tool.DescriptionAr, tool.DescriptionEn,
			tool.IsFree, tool.RequiredPoints, tool.DailyReward, tool.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed tool %s: %w", tool.Key, err)
		}
	}

	for _, post := range welcomePosts {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind("SELECT COUNT(*) FROM posts WHERE title_ar = ?"), post.TitleAr); err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO posts (title_ar, title_en, content_ar, content_en, is_active, created_at)
			VALUES (?, ?, ?, ?, TRUE, ?)`),
			post.TitleAr, post.TitleEn, post.ContentAr, post.ContentEn, now)
		if err != nil {
			return fmt.Errorf("failed to seed post: %w", err)
		}
	}

	return tx.Commit()
}
