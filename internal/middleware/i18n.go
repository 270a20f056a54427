// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/utils"
)

const defaultLanguage = "en"

// I18nMiddleware stores the caller's preferred locale for the handlers.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextLangKey, PreferredLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// PreferredLanguage picks the first Accept-Language entry with a bundled
// locale, e.g. "zh-TW,zh;q=0.9,en;q=0.8" yields zh_TW.
func PreferredLanguage(header string) string {
	supported := make(map[string]bool)
	for _, lang := range i18n.GetSupportedLanguages() {
		supported[lang] = true
	}

	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" {
			continue
		}
		switch tag {
		case "zh-Hant", "zh-HK":
			tag = "zh_TW"
		}
		tag = strings.ReplaceAll(tag, "-", "_")
		if supported[tag] {
			return tag
		}
		if base, _, found := strings.Cut(tag, "_"); found && supported[base] {
			return base
		}
	}
	return defaultLanguage
}
