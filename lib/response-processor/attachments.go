package responseprocessor

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"path/filepath"
	"strings"

	"admission-backend/models"

	"github.com/pkg/errors"
)

const DefaultMaxAttachmentSize int64 = 10 * 1024 * 1024

// допустимые типы вложений, text/html и скрипты не принимаются
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
}

// AttachmentDescriptor файл из ответа, прошедший проверки
type AttachmentDescriptor struct {
	QuestionCode string
	LineID       string
	TargetField  models.TargetField
	Name         string
	MimeType     string
	Size         int64
	// имя файла на стороне LimeSurvey, если содержимое не передано
	Ref     string
	Content []byte
}

func IsAllowedMimeType(mimeType string) bool {
	return allowedMimeTypes[NormalizeMimeType(mimeType)]
}

// NormalizeMimeType убирает параметры (charset и т.п.) и приводит к нижнему регистру
func NormalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// GuessMimeType тип файла по расширению имени
func GuessMimeType(name, ext string) string {
	if ext == "" {
		ext = filepath.Ext(name)
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return NormalizeMimeType(mime.TypeByExtension(ext))
}

// CheckAttachment проверка типа и размера вложения
func CheckAttachment(descriptor AttachmentDescriptor, maxSize int64) error {
	if descriptor.MimeType == "" {
		return errors.Errorf("не удалось определить тип файла %q", descriptor.Name)
	}
	if !IsAllowedMimeType(descriptor.MimeType) {
		return errors.Errorf("тип файла %s не разрешен (%s)", descriptor.MimeType, descriptor.Name)
	}
	if maxSize > 0 && descriptor.Size > maxSize {
		return errors.Errorf("размер файла %s превышает %d байт", descriptor.Name, maxSize)
	}
	return nil
}

// parseAttachmentValue разбирает значение вопроса-загрузки: объект, массив объектов
// или json-строка в формате LimeSurvey
func parseAttachmentValue(value any) ([]map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []map[string]any:
		return v, nil
	case []any:
		result := make([]map[string]any, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, errors.New("элемент списка файлов не является объектом")
			}
			result = append(result, obj)
		}
		return result, nil
	case string:
		s := strings.TrimSpace(v)
		if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
			return nil, errors.New("значение вопроса-загрузки не содержит описания файла")
		}
		var decoded any
		decoder := json.NewDecoder(strings.NewReader(s))
		decoder.UseNumber()
		if err := decoder.Decode(&decoded); err != nil {
			return nil, errors.Wrap(err, "некорректное описание файла")
		}
		return parseAttachmentValue(decoded)
	}
	return nil, errors.Errorf("значение типа %T не является описанием файла", value)
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			if s, err := models.CoerceString(v); err == nil && s != "" {
				return s
			}
		}
	}
	return ""
}

// buildDescriptor описание файла из объекта ответа.
// Размер LimeSurvey передает в килобайтах, при наличии содержимого берется его длина
func buildDescriptor(obj map[string]any) (AttachmentDescriptor, error) {
	descriptor := AttachmentDescriptor{
		Name: stringField(obj, "name", "title", "filename"),
		Ref:  stringField(obj, "filename"),
	}
	if content := stringField(obj, "content"); content != "" {
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return descriptor, errors.Wrap(err, "содержимое файла не в формате base64")
		}
		descriptor.Content = data
		descriptor.Size = int64(len(data))
	} else if sizeKB, ok := obj["size"]; ok {
		if kb, err := models.CoerceFloat(sizeKB); err == nil {
			descriptor.Size = int64(kb * 1024)
		}
	}
	descriptor.MimeType = NormalizeMimeType(stringField(obj, "mime_type", "mimetype", "type"))
	if descriptor.MimeType == "" {
		descriptor.MimeType = GuessMimeType(descriptor.Name, stringField(obj, "ext"))
	}
	if descriptor.Name == "" {
		descriptor.Name = "file"
	}
	return descriptor, nil
}
