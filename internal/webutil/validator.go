package webutil

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/ja" // 日本語ロケール
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja" // 日本語翻訳
)

// Validator はアプリケーション全体で共有されるバリデータインスタンスです。
var Validator *validator.Validate

// Trans はエラーメッセージを翻訳するためのトランスレータです。
var Trans ut.Translator

var fieldNameTranslations = map[string]string{
	"amount":          "付与XP",
	"reason":          "付与理由",
	"date":            "日付",
	"score":           "得点",
	"total":           "問題数",
	"correct_count":   "正解数",
	"total_count":     "出題数",
	"elapsed_seconds": "経過秒数",
}

func translatedField(fe validator.FieldError) string {
	if name, ok := fieldNameTranslations[fe.Field()]; ok {
		return name
	}
	return fe.Field()
}

func init() {
	Validator = validator.New()

	// JSONタグからフィールド名を取得するように設定
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	japanese := ja.New()
	uni := ut.New(japanese, japanese)
	var found bool
	Trans, found = uni.GetTranslator("ja")
	if !found {
		log.Fatal("translator not found")
	}

	if err := ja_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	registerTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, translatedField(fe), fe.Param())
			return t
		})
	}

	registerTranslation("required", "{0}は必須項目です。")
	registerTranslation("datetime", "{0}はYYYY-MM-DD形式で入力してください。")

	// min / max は文字列なら文字数、数値なら値の範囲
	for _, tag := range []string{"min", "max"} {
		tag := tag
		stringMsg := map[string]string{"min": "{0}は{1}文字以上で入力してください。", "max": "{0}は{1}文字以下で入力してください。"}[tag]
		numberMsg := map[string]string{"min": "{0}は{1}以上で入力してください。", "max": "{0}は{1}以下で入力してください。"}[tag]
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			if err := ut.Add(tag+"-string", stringMsg, true); err != nil {
				return err
			}
			return ut.Add(tag+"-number", numberMsg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			key := tag + "-number"
			if fe.Kind() == reflect.String {
				key = tag + "-string"
			}
			t, _ := ut.T(key, translatedField(fe), fe.Param())
			return t
		})
	}
}
