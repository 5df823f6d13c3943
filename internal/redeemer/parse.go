package redeemer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jadhstore/hypeauto/internal/model"
)

var diamondPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:diamantes|diamonds)`)

// 兑换站点为多语言页面（西/葡/英），关键字需覆盖三种语言
var (
	expiredKeywords = []string{"expirado", "expired", "vencido"}
	usedKeywords    = []string{"canjeado", "redeemed", "usado", "used"}

	successKeywords = []string{
		"exitoso", "sucesso", "success", "entregado",
		"delivered", "créditos", "creditos", "diamantes",
		"completado", "realizado",
	}
)

// ParseDiamonds 从商品名中提取钻石数量，例如 "310 Diamantes - Free Fire" → 310。
func ParseDiamonds(productName string) int {
	m := diamondPattern.FindStringSubmatch(productName)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ClassifyPinError 根据页面错误文案对 PIN 校验失败分类。
// 无法识别的文案按 pin_expired 处理（站点对无效 PIN 的提示同属此类）。
func ClassifyPinError(text string) model.ErrorType {
	lower := strings.ToLower(text)
	for _, w := range usedKeywords {
		if strings.Contains(lower, w) {
			return model.ErrorPinAlreadyUsed
		}
	}
	for _, w := range expiredKeywords {
		if strings.Contains(lower, w) {
			return model.ErrorPinExpired
		}
	}
	return model.ErrorPinExpired
}

// ContainsSuccessText 判断确认页文本是否表示兑换成功（DOM 兜底路径）。
func ContainsSuccessText(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range successKeywords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
