package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"llm-insurance/internal/domain"
)

var (
	userIDPattern      = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	signupPhonePattern = regexp.MustCompile(`^01[0-9]-\d{3,4}-\d{4}$`)
	updatePhonePattern = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

	registerOnce sync.Once

	pastDateMessage = "birthDate must be a past date in YYYY-MM-DD format"
	// today se reemplaza en tests para fijar la fecha de referencia de pastdate.
	today = func() time.Time { return time.Now().UTC() }
)

// RegisterValidators agrega las reglas propias al validator de gin. Es idempotente
// y hace panic si alguna regla no se puede registrar.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("gin validator engine is not go-playground/validator")
		}
		if err := registerRules(v, customRules()); err != nil {
			panic(err)
		}
	})
}

type validationRule struct {
	tag string
	fn  validator.Func
}

func customRules() []validationRule {
	return []validationRule{
		{"notblank", validators.NotBlank},
		{"userid", matchPattern(userIDPattern)},
		{"signup_phone", matchPattern(signupPhonePattern)},
		{"update_phone", matchPattern(updatePhonePattern)},
		{"password", validPassword},
		{"gender", validGender},
		{"pastdate", validPastDate},
	}
}

func registerRules(v *validator.Validate, rules []validationRule) error {
	v.RegisterTagNameFunc(jsonFieldName)
	var errs []error
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", r.tag, err))
		}
	}
	return errors.Join(errs...)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func matchPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// validPassword exige solo letras ASCII y digitos, con al menos uno de cada.
func validPassword(fl validator.FieldLevel) bool {
	var hasLetter, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			hasDigit = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

func validGender(fl validator.FieldLevel) bool {
	return domain.Gender(fl.Field().String()).Valid()
}

func validPastDate(fl validator.FieldLevel) bool {
	d, err := domain.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	y, m, day := today().Date()
	return d.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// fieldErrors traduce errores del validator a un mapa campo -> mensaje.
func fieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fieldMessage(fe)
	}
	return out, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "email":
		return "email format is invalid"
	case "userid":
		return "userId may contain only letters, digits and underscore"
	case "password":
		return "password must contain letters and digits only, with at least one of each"
	case "signup_phone":
		return "phoneNumber must look like 01X-XXX-XXXX or 01X-XXXX-XXXX"
	case "update_phone":
		return "phoneNumber must look like 010-XXXX-XXXX"
	case "gender":
		return "gender must be 남 or 여"
	case "pastdate":
		return pastDateMessage
	default:
		return fe.Field() + " is invalid"
	}
}
