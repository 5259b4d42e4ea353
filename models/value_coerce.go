package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// форматы дат, которые встречаются в выгрузках LimeSurvey и в ручных файлах
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
}

func CoerceString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format("2006-01-02"), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := CoerceString(item)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil
	case []string:
		return strings.Join(v, ", "), nil
	case map[string]any:
		body, err := json.Marshal(v)
		if err != nil {
			return "", errors.Wrap(err, "ошибка сериализации значения")
		}
		return string(body), nil
	}
	return fmt.Sprintf("%v", value), nil
}

func CoerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		s := strings.TrimSpace(v)
		// десятичная запятая во французской локали
		s = strings.Replace(s, ",", ".", 1)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("значение %q не является числом", v)
		}
		return f, nil
	}
	return 0, errors.Errorf("значение типа %T не является числом", value)
}

func CoerceInt(value any) (int, error) {
	f, err := CoerceFloat(value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errors.Errorf("значение %v не является целым числом", value)
	}
	return int(f), nil
}

func CoerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "y", "yes", "oui", "true", "1", "on":
			return true, nil
		case "n", "no", "non", "false", "0", "off", "":
			return false, nil
		}
		return false, errors.Errorf("значение %q не является логическим", v)
	}
	f, err := CoerceFloat(value)
	if err != nil {
		return false, errors.Errorf("значение типа %T не является логическим", value)
	}
	return f != 0, nil
}

func CoerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("значение %q не является датой", v)
	}
	return time.Time{}, errors.Errorf("значение типа %T не является датой", value)
}

var civilityAliases = map[string]string{
	"mr":           "mr",
	"m":            "mr",
	"m.":           "mr",
	"monsieur":     "mr",
	"mrs":          "mrs",
	"mme":          "mrs",
	"madame":       "mrs",
	"ms":           "ms",
	"mlle":         "ms",
	"mademoiselle": "ms",
}

// CoerceSelection приводит значение к одному из допустимых вариантов поля-списка
func CoerceSelection(field TargetField, value any) (string, error) {
	s, err := CoerceString(value)
	if err != nil {
		return "", err
	}
	key := strings.ToLower(s)
	if field == FieldCivility {
		if alias, ok := civilityAliases[key]; ok {
			return alias, nil
		}
	}
	spec, _ := field.Spec()
	for _, option := range spec.Options {
		if option == key {
			return option, nil
		}
	}
	return "", errors.Errorf("значение %q недопустимо для поля %s", s, field)
}

// IsEmptyValue пустое значение ответа (null или пустая строка)
func IsEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
