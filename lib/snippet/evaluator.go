package snippet

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"admission-backend/models"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// ограничение размера выражения (узлов AST)
	maxNodes = 500
	// ограничение длины исходного текста выражения
	maxCodeLength = 4000

	DefaultTimeout = 200 * time.Millisecond
)

var (
	ErrTimeout         = errors.New("превышено время выполнения выражения")
	ErrEmptyResult     = errors.New("выражение преобразования вернуло пустое значение")
	ErrValidationShape = errors.New("выражение проверки должно вернуть bool или {is_valid, message}")
)

// CompileError выражение не прошло разбор или проверку типов
type CompileError struct {
	Err error
}

func (e CompileError) Error() string {
	return "ошибка в выражении: " + e.Err.Error()
}

func (e CompileError) Unwrap() error {
	return e.Err
}

// ValidationResult результат выражения проверки
type ValidationResult struct {
	IsValid bool
	Message string
}

type Provider interface {
	// Check компилирует выражение без выполнения
	Check(code string) error
	Transform(ctx context.Context, code string, value any) (any, error)
	Validate(ctx context.Context, code string, value any) (ValidationResult, error)
}

var Instance Provider

func NewHandler(timeout time.Duration) {
	Instance = NewInstance(timeout)
}

func NewInstance(timeout time.Duration) Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &impl{timeout: timeout}
}

// переменные выражения: только значение ответа
type env struct {
	Value any `expr:"value"`
}

type impl struct {
	timeout  time.Duration
	programs sync.Map
}

func (i *impl) Check(code string) error {
	_, err := i.compile(code)
	return err
}

func (i *impl) Transform(ctx context.Context, code string, value any) (any, error) {
	if strings.TrimSpace(code) == "" {
		return value, nil
	}
	result, err := i.run(ctx, code, value)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrEmptyResult
	}
	return result, nil
}

func (i *impl) Validate(ctx context.Context, code string, value any) (ValidationResult, error) {
	if strings.TrimSpace(code) == "" {
		return ValidationResult{IsValid: true}, nil
	}
	result, err := i.run(ctx, code, value)
	if err != nil {
		return ValidationResult{}, err
	}
	switch v := result.(type) {
	case bool:
		return ValidationResult{IsValid: v}, nil
	case map[string]any:
		isValid, ok := v["is_valid"].(bool)
		if !ok {
			return ValidationResult{}, ErrValidationShape
		}
		message, _ := v["message"].(string)
		return ValidationResult{IsValid: isValid, Message: message}, nil
	}
	return ValidationResult{}, ErrValidationShape
}

func (i *impl) compile(code string) (*vm.Program, error) {
	code = strings.TrimSpace(code)
	if len(code) > maxCodeLength {
		return nil, CompileError{Err: errors.Errorf("выражение длиннее %d символов", maxCodeLength)}
	}
	if cached, ok := i.programs.Load(code); ok {
		return cached.(*vm.Program), nil
	}
	options := append([]expr.Option{
		expr.Env(env{}),
		expr.MaxNodes(maxNodes),
		expr.DisableBuiltin("repeat"),
		expr.DisableBuiltin("now"),
	}, helpers...)
	program, err := expr.Compile(code, options...)
	if err != nil {
		return nil, CompileError{Err: err}
	}
	i.programs.Store(code, program)
	return program, nil
}

// plainValue числа из json (json.Number) приводятся к int64/float64, чтобы арифметика
// и сравнения в выражениях не зависели от того, как пришел ответ
func plainValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = plainValue(item)
		}
		return result
	case []any:
		result := make([]any, 0, len(v))
		for _, item := range v {
			result = append(result, plainValue(item))
		}
		return result
	}
	return value
}

func (i *impl) run(ctx context.Context, code string, value any) (result any, err error) {
	program, err := i.compile(code)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	type output struct {
		value any
		err   error
	}
	done := make(chan output, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("code", code).Errorf("паника при выполнении выражения: %v", r)
				done <- output{err: errors.Errorf("ошибка выполнения выражения: %v", r)}
			}
		}()
		res, runErr := expr.Run(program, env{Value: plainValue(value)})
		done <- output{value: res, err: runErr}
	}()

	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case out := <-done:
		if out.err != nil {
			return nil, errors.Wrap(out.err, "ошибка выполнения выражения")
		}
		return out.value, nil
	}
}

var (
	digitsRe = regexp.MustCompile(`\D+`)
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// функции, доступные в выражениях помимо встроенных
var helpers = []expr.Option{
	expr.Function("parse_date", func(params ...any) (any, error) {
		return models.CoerceDate(params[0])
	}, new(func(any) time.Time)),
	expr.Function("format_date", func(params ...any) (any, error) {
		t, err := models.CoerceDate(params[0])
		if err != nil {
			return nil, err
		}
		return t.Format(params[1].(string)), nil
	}, new(func(any, string) string)),
	expr.Function("to_number", func(params ...any) (any, error) {
		return models.CoerceFloat(params[0])
	}, new(func(any) float64)),
	expr.Function("to_int", func(params ...any) (any, error) {
		return models.CoerceInt(params[0])
	}, new(func(any) int)),
	expr.Function("to_bool", func(params ...any) (any, error) {
		return models.CoerceBool(params[0])
	}, new(func(any) bool)),
	expr.Function("to_text", func(params ...any) (any, error) {
		return models.CoerceString(params[0])
	}, new(func(any) string)),
	expr.Function("regex_match", func(params ...any) (any, error) {
		re, err := regexp.Compile(params[1].(string))
		if err != nil {
			return nil, err
		}
		return re.MatchString(fmt.Sprint(params[0])), nil
	}, new(func(any, string) bool)),
	expr.Function("regex_replace", func(params ...any) (any, error) {
		re, err := regexp.Compile(params[1].(string))
		if err != nil {
			return nil, err
		}
		return re.ReplaceAllString(fmt.Sprint(params[0]), params[2].(string)), nil
	}, new(func(any, string, string) string)),
	expr.Function("digits", func(params ...any) (any, error) {
		return digitsRe.ReplaceAllString(fmt.Sprint(params[0]), ""), nil
	}, new(func(any) string)),
	expr.Function("title", func(params ...any) (any, error) {
		return cases.Title(language.French).String(strings.ToLower(fmt.Sprint(params[0]))), nil
	}, new(func(any) string)),
	expr.Function("is_email", func(params ...any) (any, error) {
		return emailRe.MatchString(strings.TrimSpace(fmt.Sprint(params[0]))), nil
	}, new(func(any) bool)),
	expr.Function("is_empty", func(params ...any) (any, error) {
		return models.IsEmptyValue(params[0]), nil
	}, new(func(any) bool)),
}
