package i18n

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"golang.org/x/text/language"
)

const (
	LangEn = "en"
	LangZh = "zh"
)

const (
	phoneTag        = "phone"
	visibilityTag   = "visibility"
	feedbackReason  = "feedback_reason"
	keyConflict     = "err_conflict"
	keyReference    = "err_reference"
	keyValidation   = "err_validation"
	keyUnknown      = "err_unknown"
	keyInvalidKey   = "err_invalid_key"
	keyUnauthorized = "err_unauthorized"
	keyForbidden    = "err_forbidden"
	keyNotFound     = "err_not_found"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// шаблоны сообщений об ошибках; ut подставляет параметры по возрастанию номера,
// поэтому в каждом шаблоне {0} идёт раньше {1}
var templates = map[string]map[string]string{
	LangEn: {
		keyConflict:     `The {0} "{1}" has already been taken`,
		keyReference:    `{0} is not an existing {1}`,
		keyValidation:   `The {0} "{1}" is invalid`,
		keyUnknown:      `An unknown error just occurred [code {0}]`,
		keyInvalidKey:   `The registration key is invalid, please double-check or contact the administrator`,
		keyUnauthorized: `Please log in first`,
		keyForbidden:    `You do not have permission to perform this action`,
		keyNotFound:     `The requested record does not exist`,
		phoneTag:        `{0} must be a valid phone number`,
		visibilityTag:   `{0} must be one of private, class, curriculum, year, students`,
		feedbackReason:  `{0} is not a known feedback reason`,
	},
	LangZh: {
		keyConflict:     `{0}“{1}”已被占用`,
		keyReference:    `{0}不是已存在的{1}`,
		keyValidation:   `{0}“{1}”无效`,
		keyUnknown:      `发生未知错误 [代码 {0}]`,
		keyInvalidKey:   `注册码无效，请仔细检查或联系管理员`,
		keyUnauthorized: `请先登录`,
		keyForbidden:    `您没有执行此操作的权限`,
		keyNotFound:     `请求的记录不存在`,
		phoneTag:        `{0}必须是有效的手机号`,
		visibilityTag:   `{0}必须是 private、class、curriculum、year、students 之一`,
		feedbackReason:  `{0}不是有效的反馈类型`,
	},
}

// подписи полей в сообщениях
var labels = map[string]map[string]string{
	LangEn: {
		"phone_number":     "phone number",
		"wxid":             "WeChat ID",
		"school_uid":       "school",
		"curriculum_uid":   "curriculum",
		"registration_key": "registration key",
		"grad_year":        "graduation year",
		"class_number":     "class number",
	},
	LangZh: {
		"name":             "姓名",
		"email":            "邮箱",
		"phone_number":     "手机号",
		"wxid":             "微信号",
		"school_uid":       "学校",
		"class":            "班级",
		"curriculum_uid":   "课程体系",
		"registration_key": "注册码",
		"grad_year":        "毕业年份",
		"class_number":     "班级号",
		"password":         "密码",
	},
}

// Translator валидация запросов и локализация ошибок
type Translator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

// New регистрирует переводы en/zh и пользовательские теги
func New() (*Translator, error) {
	v := validator.New()

	// имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(visibilityTag, func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "private", "class", "curriculum", "year", "students":
			return true
		}
		return false
	})
	_ = v.RegisterValidation(feedbackReason, func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "registration", "reset password", "update info", "improvement", "general":
			return true
		}
		return false
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, zh.New())

	enTrans, _ := uni.GetTranslator(LangEn)
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, fmt.Errorf("register en translations: %w", err)
	}
	zhTrans, _ := uni.GetTranslator(LangZh)
	if err := zh_translations.RegisterDefaultTranslations(v, zhTrans); err != nil {
		return nil, fmt.Errorf("register zh translations: %w", err)
	}

	for lang, set := range templates {
		trans, _ := uni.GetTranslator(lang)
		for key, text := range set {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("add %s template %s: %w", lang, key, err)
			}
		}
		for _, tag := range []string{phoneTag, visibilityTag, feedbackReason} {
			err := v.RegisterTranslation(tag, trans, func(ut.Translator) error { return nil }, translateCustom)
			if err != nil {
				return nil, fmt.Errorf("register %s translation %s: %w", lang, tag, err)
			}
		}
	}

	return &Translator{validate: v, uni: uni}, nil
}

func translateCustom(trans ut.Translator, fe validator.FieldError) string {
	msg, err := trans.T(fe.Tag(), fe.Field())
	if err != nil {
		return fe.Error()
	}
	return msg
}

// Struct проверяет структуру по тегам validate
func (t *Translator) Struct(v any) error {
	return t.validate.Struct(v)
}

// Lang выбирает язык по заголовку Accept-Language, по умолчанию английский
func (t *Translator) Lang(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	if base, _ := tag.Base(); base.String() == LangZh {
		return LangZh
	}
	return LangEn
}

func (t *Translator) translator(lang string) ut.Translator {
	trans, found := t.uni.GetTranslator(lang)
	if !found {
		trans, _ = t.uni.GetTranslator(LangEn)
	}
	return trans
}

func label(lang, field string) string {
	if l, ok := labels[lang][field]; ok {
		return l
	}
	return strings.ReplaceAll(field, "_", " ")
}

// Message одно локализованное сообщение для пользователя
func (t *Translator) Message(lang string, err error) string {
	trans := t.translator(lang)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Translate(trans)
	}

	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Unknown("", err)
	}

	var key string
	var params []string
	switch e.Kind {
	case apperr.KindConflict:
		key, params = keyConflict, []string{label(lang, e.Field), e.Value}
	case apperr.KindReference:
		key, params = keyReference, []string{e.Value, label(lang, e.Field)}
	case apperr.KindValidation:
		key, params = keyValidation, []string{label(lang, e.Field), e.Value}
	case apperr.KindInvalidKey:
		key = keyInvalidKey
	case apperr.KindUnauthorized:
		key = keyUnauthorized
	case apperr.KindForbidden:
		key = keyForbidden
	case apperr.KindNotFound:
		key = keyNotFound
	default:
		code := e.Code
		if code == "" {
			code = "internal"
		}
		key, params = keyUnknown, []string{code}
	}

	msg, terr := trans.T(key, params...)
	if terr != nil {
		return e.Error()
	}
	return msg
}

// Fields сообщения валидации по полям
func (t *Translator) Fields(lang string, err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	trans := t.translator(lang)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}
