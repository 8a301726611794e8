package services

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/isdelr/smarttools-be/internal/apperror"
	"github.com/isdelr/smarttools-be/internal/models"
)

// ToolInput is the union of the parameters the text tools accept.
type ToolInput struct {
	Topic    string `json:"topic"`
	Language string `json:"language"`
	Style    string `json:"style"`
	Text     string `json:"text"`
	Mood     string `json:"mood"`
}

// Generator produces a tool's output for an account.
type Generator func(account models.Account, in ToolInput) (map[string]any, error)

// Generators maps tool keys to their output producers. Tools missing here
// have dedicated endpoints.
var Generators = map[string]Generator{
	models.ToolSmartTitles:    smartTitles,
	models.ToolAdvancedTitles: advancedTitles,
	models.ToolSmartEmoji:     smartEmoji,
}

func languageFor(account models.Account, requested string) (string, error) {
	lang := strings.TrimSpace(requested)
	if lang == "" {
		lang = account.Locale
	}
	if !models.ValidLocale(lang) {
		return "", apperror.Validation("unsupported language")
	}
	return lang, nil
}

func numbered(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, line)
	}
	return b.String()
}

func smartTitles(account models.Account, in ToolInput) (map[string]any, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, apperror.Validation("topic is required")
	}
	lang, err := languageFor(account, in.Language)
	if err != nil {
		return nil, err
	}

	var titles []string
	if lang == models.LocaleArabic {
		titles = []string{
			fmt.Sprintf("🚀 %s: دليلك الشامل للنجاح", topic),
			fmt.Sprintf("💡 أسرار %s التي لم تعرفها من قبل", topic),
			fmt.Sprintf("🔥 كيف تتقن %s في 7 خطوات بسيطة", topic),
			fmt.Sprintf("⭐ %s: الطريق إلى الاحتراف", topic),
			fmt.Sprintf("🎯 تعلم %s واحصل على النتائج المذهلة", topic),
		}
	} else {
		titles = []string{
			fmt.Sprintf("🚀 %s: Your Complete Guide to Success", topic),
			fmt.Sprintf("💡 %s Secrets You Never Knew Before", topic),
			fmt.Sprintf("🔥 Master %s in 7 Simple Steps", topic),
			fmt.Sprintf("⭐ %s: The Path to Professionalism", topic),
			fmt.Sprintf("🎯 Learn %s and Get Amazing Results", topic),
		}
	}
	return map[string]any{"titles": numbered(titles), "language": lang}, nil
}

func advancedTitles(account models.Account, in ToolInput) (map[string]any, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, apperror.Validation("topic is required")
	}
	lang, err := languageFor(account, in.Language)
	if err != nil {
		return nil, err
	}
	style := strings.TrimSpace(in.Style)
	if style == "" {
		style = "professional"
	}

	var titles []string
	if lang == models.LocaleArabic {
		titles = []string{
			fmt.Sprintf("📊 تحليل شامل: %s وتأثيره على السوق (تقييم: 9/10)", topic),
			fmt.Sprintf("🎓 دليل الخبراء: إتقان %s بمنهجية علمية (تقييم: 10/10)", topic),
			fmt.Sprintf("💼 استراتيجية احترافية: %s للمؤسسات الناجحة (تقييم: 9/10)", topic),
			fmt.Sprintf("🔬 دراسة متعمقة: %s والابتكار التقني (تقييم: 8/10)", topic),
			fmt.Sprintf("📈 تطبيق عملي: %s لتحقيق النمو المستدام (تقييم: 9/10)", topic),
		}
	} else {
		titles = []string{
			fmt.Sprintf("📊 In-Depth Analysis: %s and Its Market Impact (score: 9/10)", topic),
			fmt.Sprintf("🎓 Expert Guide: Mastering %s Methodically (score: 10/10)", topic),
			fmt.Sprintf("💼 Professional Strategy: %s for Successful Teams (score: 9/10)", topic),
			fmt.Sprintf("🔬 Deep Dive: %s and Technical Innovation (score: 8/10)", topic),
			fmt.Sprintf("📈 Hands-On: %s for Sustainable Growth (score: 9/10)", topic),
		}
	}
	return map[string]any{"titles": numbered(titles), "style": style, "language": lang}, nil
}

var emojiSets = map[string][]string{
	"happy":        {"😊", "😄", "🎉", "✨", "🌟", "💫", "🎊", "🥳"},
	"professional": {"💼", "📊", "📈", "🎯", "⭐", "🏆", "💡", "🔥"},
	"creative":     {"🎨", "✨", "🌈", "💡", "🚀", "⚡", "🎭", "🎪"},
	"excited":      {"🚀", "⚡", "🔥", "💥", "🎯", "🌟", "✨", "🎉"},
	"neutral":      {"📝", "💭", "🤔", "📚", "💡", "🔍", "📌", "✅"},
}

const emojiPicks = 5

// pickEmojis selects emojiPicks distinct entries, stable for a given text.
func pickEmojis(set []string, text string) []string {
	h := fnv.New32a()
	h.Write([]byte(text))
	offset := int(h.Sum32() % uint32(len(set)))

	// A step of 3 is coprime with the set size of 8, so picks never repeat.
	picks := make([]string, 0, emojiPicks)
	for i := 0; i < emojiPicks && i < len(set); i++ {
		picks = append(picks, set[(offset+i*3)%len(set)])
	}
	return picks
}

func smartEmoji(_ models.Account, in ToolInput) (map[string]any, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperror.Validation("text is required")
	}
	mood := strings.TrimSpace(in.Mood)
	set, ok := emojiSets[mood]
	if !ok {
		mood = "neutral"
		set = emojiSets[mood]
	}

	emojis := pickEmojis(set, text)
	preview := []rune(text)
	if len(preview) > 50 {
		preview = preview[:50]
	}
	return map[string]any{
		"emojis":            emojis,
		"mood":              mood,
		"emoji_suggestions": fmt.Sprintf("%s %s", string(preview), strings.Join(emojis, " ")),
	}, nil
}
