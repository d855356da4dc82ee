package intent

import "strings"

// Label 表示用户消息的意图。
type Label string

const (
	// Offer 用户想提供服务，进入发布引导流程。
	Offer Label = "offer"
	// Find 用户想寻找服务，进入推荐流程。
	Find Label = "find"
)

var offerKeywords = []string{"offer", "sell", "provide", "create"}

// Classify 通过关键词子串匹配判断意图，未命中时默认为 Find。
// 空白输入应由调用方在分类前拒绝。
func Classify(text string) Label {
	normalized := strings.ToLower(text)
	for _, word := range offerKeywords {
		if strings.Contains(normalized, word) {
			return Offer
		}
	}
	return Find
}

// Keywords returns a copy of the offer keyword set.
func Keywords() []string {
	return append([]string(nil), offerKeywords...)
}
