package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownLocale = errors.New("unknown locale")

// Messages holds the prompts and placeholder texts for one locale.
type Messages struct {
	UnknownSpecies string

	HealthPrompt        string
	HealthNotConfigured string
	HealthFailed        string
	HealthUnavailable   string
	// HealthError is a format string taking the error detail.
	HealthError string

	// AdvicePrompt takes common name, scientific name, confidence percentage
	// and the health analysis, in that order.
	AdvicePrompt        string
	AdviceNotConfigured string
	AdviceFailed        string
	AdviceUnavailable   string
	AdviceError         string
}

// UnknownScientificName is not localized.
const UnknownScientificName = "Unknown species"

var catalogs = map[string]Messages{
	"en": {
		UnknownSpecies: "unknown species",

		HealthPrompt: "Analyze the health of the plant in this image. Focus on: " +
			"1. leaf color and shape 2. signs of pests or disease 3. overall growth state " +
			"4. any abnormal symptoms. Answer in English and keep it concise.",
		HealthNotConfigured: "Configure the generative model API key in settings to enable health analysis.",
		HealthFailed:        "analysis failed",
		HealthUnavailable:   "health analysis service temporarily unavailable",
		HealthError:         "health analysis error: %s",

		AdvicePrompt: `Based on the following information, give the user detailed plant care advice:

Plant species: %s
Scientific name: %s
Identification confidence: %s%%

Health analysis:
%s

Provide concrete advice on:
1. Watering frequency and method
2. Light requirements
3. Fertilizing schedule
4. Suitable growing environment
5. Prevention of common problems

Answer in English, clearly structured and practical.`,
		AdviceNotConfigured: "Configure the generative model API key in settings to enable care advice.",
		AdviceFailed:        "advice generation failed",
		AdviceUnavailable:   "care advice service temporarily unavailable",
		AdviceError:         "care advice error: %s",
	},
	"zh": {
		UnknownSpecies: "未知植物",

		HealthPrompt: "请分析这张植物图片的健康状况。请重点关注以下方面：1. 叶片颜色和形状 " +
			"2. 是否有病虫害迹象 3. 整体生长状态 4. 任何异常症状。请用中文回答，并保持简洁。",
		HealthNotConfigured: "请在设置中配置OpenAI API密钥以启用健康分析功能",
		HealthFailed:        "分析失败",
		HealthUnavailable:   "健康分析服务暂时不可用",
		HealthError:         "健康分析出错: %s",

		AdvicePrompt: `基于以下信息，请为用户提供详细的植物养护建议：

植物品种：%s
学名：%s
识别置信度：%s%%

健康状况分析：
%s

请提供以下方面的具体建议：
1. 浇水频率和方法
2. 光照要求
3. 施肥建议
4. 适宜的生长环境
5. 常见问题预防

请用中文回答，条理清晰，实用性强。`,
		AdviceNotConfigured: "请在设置中配置OpenAI API密钥以启用养护建议功能",
		AdviceFailed:        "建议生成失败",
		AdviceUnavailable:   "养护建议服务暂时不可用",
		AdviceError:         "养护建议生成出错: %s",
	},
}

// Catalog returns the messages for locale ("en", "zh", "zh-CN", ...).
func Catalog(locale string) (Messages, error) {
	key := strings.ToLower(locale)
	if i := strings.IndexAny(key, "-_"); i > 0 {
		key = key[:i]
	}
	m, ok := catalogs[key]
	if !ok {
		return Messages{}, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return m, nil
}

// MessagesFor is Catalog with an English fallback.
func MessagesFor(locale string) Messages {
	m, err := Catalog(locale)
	if err != nil {
		return catalogs[DefaultLocale]
	}
	return m
}

func Locales() []string {
	return []string{"en", "zh"}
}
