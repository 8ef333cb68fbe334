package i18n

import "strings"

// Translator retrieves localized messages for issue codes.
// data provides optional values to embed in the message (for example,
// "property" or "expected").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var messages = map[string]map[string]string{
	"en": {
		"null_not_allowed": "explicit null is not allowed for {property}",
		"type_conversion":  "cannot convert value of {property} to {expected}",
		"schema_mismatch":  "resolved values do not match the schema at {property}",
		"invalid_type":     "invalid type",
		"duplicate_key":    "duplicate key",
		"parse_error":      "parse error",
		"truncated":        "truncated",
	},
	"ja": {
		"null_not_allowed": "{property} に明示的な null は指定できません",
		"type_conversion":  "{property} の値を {expected} に変換できません",
		"schema_mismatch":  "{property} で解決済みの値がスキーマと一致しません",
		"invalid_type":     "型が不正です",
		"duplicate_key":    "キーが重複しています",
		"parse_error":      "解析エラー",
		"truncated":        "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := messages[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
// It is meant to be called once at startup.
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). A nil translator restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
