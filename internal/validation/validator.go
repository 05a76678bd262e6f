// Package validation はフォーム入力の検証を提供する。
//
// go-playground/validatorのタグで検証ルールを宣言し、
// エラーメッセージはフランス語に翻訳して返す。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/hitoshi/eduportal/internal/model"
)

// カスタム検証タグ
const (
	notBlankTag = "notblank"
	phoneTag    = "phone"
	passwordTag = "password"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 8

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

var customMessages = map[string]string{
	notBlankTag: "{0} ne peut pas être vide",
	phoneTag:    "{0} doit être un numéro de téléphone valide",
	passwordTag: "{0} doit contenir au moins 8 caractères dont une lettre et un chiffre",
}

// Validator は構造体タグに基づく入力検証を行う。
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New は新しいValidatorを生成する。
// フランス語の既定メッセージとカスタムタグを登録する。
func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	locale := fr.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	// エラーにはGoのフィールド名ではなくJSONタグ名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validations := map[string]validator.Func{
		notBlankTag: notBlank,
		phoneTag:    phoneNumber,
		passwordTag: strongPassword,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
		msg := customMessages[tag]
		err := v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(fe.Tag(), fe.Field())
				return s
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}

	return &Validator{validate: v, trans: trans}, nil
}

// MustNew はNewと同じだが、失敗時にpanicする。
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Struct は構造体を検証する。
// 検証エラーはフィールドごとのメッセージを持つ*model.APIErrorとして返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	fields := v.Fields(verrs)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name])
	}
	apiErr := model.NewValidationError(strings.Join(msgs, " "))
	apiErr.Fields = fields
	return apiErr
}

// Fields は検証エラーをフィールド名と翻訳済みメッセージの対応に変換する。
func (v *Validator) Fields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, exists := fields[fe.Field()]; exists {
			continue
		}
		fields[fe.Field()] = fe.Translate(v.trans)
	}
	return fields
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func phoneNumber(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return phonePattern.MatchString(strings.ReplaceAll(str, " ", ""))
}

func strongPassword(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok || len([]rune(str)) < MinPasswordLength {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range str {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
