package apimodels

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// FlexString строка, которую LimeSurvey может прислать числом
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return errors.New("ожидалась строка или число")
	}
	*s = FlexString(number.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

