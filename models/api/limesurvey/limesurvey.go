package limesurveyapimodels

import (
	apimodels "admission-backend/models/api"
	"encoding/json"
)

type RPCRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

type RPCResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  any             `json:"error"`
}

// StatusResult ответ RemoteControl API в случае ошибки или пустого результата
type StatusResult struct {
	Status string `json:"status"`
}

type SurveyInfo struct {
	SID           apimodels.FlexString `json:"sid"`
	SurveyLSTitle string               `json:"surveyls_title"`
	Active        string               `json:"active"` // Y/N
	Expires       string               `json:"expires"`
}

type SurveyProperties struct {
	Active   string `json:"active"`
	Language string `json:"language"`
}

type RawGroup struct {
	GID        apimodels.FlexString `json:"gid"`
	GroupName  string               `json:"group_name"`
	GroupOrder apimodels.FlexString `json:"group_order"`
}

// RawQuestion вопрос в формате list_questions
type RawQuestion struct {
	QID           apimodels.FlexString `json:"qid"`
	ParentQID     apimodels.FlexString `json:"parent_qid"`
	GID           apimodels.FlexString `json:"gid"`
	Type          string               `json:"type"`
	Title         string               `json:"title"`
	Question      string               `json:"question"`
	Mandatory     any                  `json:"mandatory"`
	QuestionOrder apimodels.FlexString `json:"question_order"`
	Relevance     string               `json:"relevance"`
	Other         string               `json:"other"`
	Attributes    map[string]any       `json:"attributes"`
}

type RawSchema struct {
	Groups    []RawGroup
	Questions []RawQuestion
}

type ExportedResponses struct {
	Responses []json.RawMessage `json:"responses"`
}
