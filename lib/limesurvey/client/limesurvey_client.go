package limesurveyclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	limesurveyapimodels "admission-backend/models/api/limesurvey"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Connection параметры подключения к RemoteControl API сервера LimeSurvey
type Connection struct {
	ServerID string
	BaseURL  string
	RPCPath  string
	Username string
	Password string
}

func (c Connection) Endpoint() string {
	path := c.RPCPath
	if path == "" {
		path = RPCPaths[0]
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

// SessionCache хранилище ключей сессий RemoteControl API
type SessionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Provider interface {
	// TestConnection подбирает рабочий адрес API и проверяет авторизацию
	TestConnection(ctx context.Context, conn Connection) (rpcPath string, err error)
	ListSurveys(ctx context.Context, conn Connection) ([]limesurveyapimodels.SurveyInfo, error)
	GetSurveyProperties(ctx context.Context, conn Connection, surveyID string) (*limesurveyapimodels.SurveyProperties, error)
	ListGroups(ctx context.Context, conn Connection, surveyID string) ([]limesurveyapimodels.RawGroup, error)
	ListQuestions(ctx context.Context, conn Connection, surveyID string) ([]limesurveyapimodels.RawQuestion, error)
	// ExportResponses все завершенные ответы анкеты. Пустой список - ответов нет
	ExportResponses(ctx context.Context, conn Connection, surveyID string) ([]map[string]any, error)
}

var Instance Provider

// RPCPaths варианты адреса RemoteControl API в разных версиях и настройках LimeSurvey
var RPCPaths = []string{
	"/index.php/admin/remotecontrol",
	"/admin/remotecontrol",
	"/index.php/admin/remotecontrol/sa/index",
}

const (
	mGetSessionKey       = "get_session_key"
	mReleaseSessionKey   = "release_session_key"
	mListSurveys         = "list_surveys"
	mGetSurveyProperties = "get_survey_properties"
	mListGroups          = "list_groups"
	mListQuestions       = "list_questions"
	mExportResponses     = "export_responses"

	statusNoResponse     = "No Response found"
	statusNoSurveys      = "No surveys found"
	statusNoQuestions    = "No questions found"
	statusNoGroups       = "No groups found"
	statusInvalidSession = "Invalid session key"
)

// RPCError ошибка, которую вернул RemoteControl API в поле status или error
type RPCError struct {
	Method string
	Status string
}

func (e RPCError) Error() string {
	return fmt.Sprintf("LimeSurvey %s: %s", e.Method, e.Status)
}

func NewProvider(timeout time.Duration, cache SessionCache, sessionTTL time.Duration) {
	Instance = NewInstance(timeout, cache, sessionTTL)
}

func NewInstance(timeout time.Duration, cache SessionCache, sessionTTL time.Duration) Provider {
	return &impl{
		client:     &http.Client{Timeout: timeout},
		cache:      cache,
		sessionTTL: sessionTTL,
	}
}

type impl struct {
	client     *http.Client
	cache      SessionCache
	sessionTTL time.Duration
}

func (i impl) TestConnection(ctx context.Context, conn Connection) (string, error) {
	var lastErr error
	for _, path := range RPCPaths {
		conn.RPCPath = path
		key, err := i.newSessionKey(ctx, conn)
		if err != nil {
			var rpcErr RPCError
			if errors.As(err, &rpcErr) {
				// адрес верный, отказ в авторизации
				return "", err
			}
			lastErr = err
			continue
		}
		i.releaseSessionKey(ctx, conn, key)
		return path, nil
	}
	if lastErr == nil {
		lastErr = errors.New("не найден адрес RemoteControl API")
	}
	return "", lastErr
}

func (i impl) ListSurveys(ctx context.Context, conn Connection) (list []limesurveyapimodels.SurveyInfo, err error) {
	list = []limesurveyapimodels.SurveyInfo{}
	err = i.withSession(ctx, conn, func(key string) error {
		return i.call(ctx, conn, mListSurveys, []any{key}, &list)
	})
	if isEmptyStatus(err, statusNoSurveys) {
		return []limesurveyapimodels.SurveyInfo{}, nil
	}
	return list, err
}

func (i impl) GetSurveyProperties(ctx context.Context, conn Connection, surveyID string) (*limesurveyapimodels.SurveyProperties, error) {
	resp := new(limesurveyapimodels.SurveyProperties)
	err := i.withSession(ctx, conn, func(key string) error {
		return i.call(ctx, conn, mGetSurveyProperties, []any{key, surveyID, []string{"active", "language"}}, resp)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (i impl) ListGroups(ctx context.Context, conn Connection, surveyID string) (list []limesurveyapimodels.RawGroup, err error) {
	list = []limesurveyapimodels.RawGroup{}
	err = i.withSession(ctx, conn, func(key string) error {
		return i.call(ctx, conn, mListGroups, []any{key, surveyID}, &list)
	})
	if isEmptyStatus(err, statusNoGroups) {
		return []limesurveyapimodels.RawGroup{}, nil
	}
	return list, err
}

func (i impl) ListQuestions(ctx context.Context, conn Connection, surveyID string) (list []limesurveyapimodels.RawQuestion, err error) {
	list = []limesurveyapimodels.RawQuestion{}
	err = i.withSession(ctx, conn, func(key string) error {
		return i.call(ctx, conn, mListQuestions, []any{key, surveyID}, &list)
	})
	if isEmptyStatus(err, statusNoQuestions) {
		return []limesurveyapimodels.RawQuestion{}, nil
	}
	return list, err
}

func (i impl) ExportResponses(ctx context.Context, conn Connection, surveyID string) ([]map[string]any, error) {
	var encoded string
	err := i.withSession(ctx, conn, func(key string) error {
		return i.call(ctx, conn, mExportResponses, []any{key, surveyID, "json", nil, "complete", "code", "short"}, &encoded)
	})
	if isEmptyStatus(err, statusNoResponse) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка декодирования выгрузки ответов")
	}
	return DecodeExport(body)
}

// DecodeExport разбор выгрузки export_responses в формате json.
// Старые версии LimeSurvey оборачивают каждый ответ в объект {"<id>": {...}}
func DecodeExport(body []byte) ([]map[string]any, error) {
	exported := limesurveyapimodels.ExportedResponses{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&exported); err != nil {
		return nil, errors.Wrap(err, "ошибка сериализации выгрузки ответов")
	}
	result := make([]map[string]any, 0, len(exported.Responses))
	for _, raw := range exported.Responses {
		item := map[string]any{}
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&item); err != nil {
			return nil, errors.Wrap(err, "ошибка сериализации ответа")
		}
		if len(item) == 1 {
			for _, value := range item {
				if inner, ok := value.(map[string]any); ok {
					item = inner
				}
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (i impl) withSession(ctx context.Context, conn Connection, fn func(key string) error) error {
	key, cached, err := i.sessionKey(ctx, conn)
	if err != nil {
		return err
	}
	err = fn(key)
	if err != nil && cached && isEmptyStatus(err, statusInvalidSession) {
		// ключ из кеша истек на стороне LimeSurvey
		i.dropSessionKey(ctx, conn)
		key, _, err = i.sessionKey(ctx, conn)
		if err != nil {
			return err
		}
		err = fn(key)
	}
	if i.cache == nil {
		i.releaseSessionKey(ctx, conn, key)
	}
	return err
}

func (i impl) sessionKey(ctx context.Context, conn Connection) (key string, cached bool, err error) {
	if i.cache != nil {
		key, err = i.cache.Get(ctx, sessionCacheKey(conn))
		if err != nil {
			log.WithError(err).Warn("ошибка чтения ключа сессии LimeSurvey из кеша")
		}
		if key != "" {
			return key, true, nil
		}
	}
	key, err = i.newSessionKey(ctx, conn)
	if err != nil {
		return "", false, err
	}
	if i.cache != nil {
		if err = i.cache.Set(ctx, sessionCacheKey(conn), key, i.sessionTTL); err != nil {
			log.WithError(err).Warn("ошибка сохранения ключа сессии LimeSurvey в кеш")
		}
	}
	return key, false, nil
}

func (i impl) newSessionKey(ctx context.Context, conn Connection) (string, error) {
	var key string
	err := i.call(ctx, conn, mGetSessionKey, []any{conn.Username, conn.Password}, &key)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", RPCError{Method: mGetSessionKey, Status: "пустой ключ сессии"}
	}
	return key, nil
}

func (i impl) dropSessionKey(ctx context.Context, conn Connection) {
	if err := i.cache.Delete(ctx, sessionCacheKey(conn)); err != nil {
		log.WithError(err).Warn("ошибка удаления ключа сессии LimeSurvey из кеша")
	}
}

func (i impl) releaseSessionKey(ctx context.Context, conn Connection, key string) {
	var result any
	if err := i.call(ctx, conn, mReleaseSessionKey, []any{key}, &result); err != nil {
		log.WithError(err).Warn("ошибка освобождения сессии LimeSurvey")
	}
}

func (i impl) call(ctx context.Context, conn Connection, method string, params []any, result any) error {
	uri := conn.Endpoint()
	logger := log.
		WithField("external_request", uri).
		WithField("rpc_method", method)
	body, err := json.Marshal(limesurveyapimodels.RPCRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return errors.Wrap(err, "ошибка десериализации запроса")
	}
	if method != mGetSessionKey {
		logger = logger.WithField("request_body", string(body))
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "ошибка формирования запроса")
	}
	r.Header.Add("Content-Type", "application/json")
	resp := limesurveyapimodels.RPCResponse{}
	if err = i.sendRequest(logger, r, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return RPCError{Method: method, Status: fmt.Sprintf("%v", resp.Error)}
	}
	if status, ok := statusOf(resp.Result); ok {
		return RPCError{Method: method, Status: status}
	}
	if result == nil {
		return nil
	}
	if err = json.Unmarshal(resp.Result, result); err != nil {
		logger.WithField("response_body", string(resp.Result)).WithError(err).Error("ошибка сериализации ответа LimeSurvey")
		return errors.Wrap(err, "ошибка сериализации ответа")
	}
	return nil
}

func (i impl) sendRequest(logger *log.Entry, r *http.Request, resp interface{}) error {
	r.Header.Add("User-Agent", "AdmissionBackend/1.0")
	response, err := i.client.Do(r)
	if err != nil {
		logger.WithError(err).Error("ошибка отправки запроса в LimeSurvey")
		return errors.Wrap(err, "ошибка отправки запроса в LimeSurvey")
	}
	defer response.Body.Close()
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "ошибка чтения ответа LimeSurvey")
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		logger.
			WithField("response_body", string(responseBody)).
			WithField("status_code", response.StatusCode).
			Error("ошибка отправки запроса в LimeSurvey")
		return errors.Errorf("LimeSurvey вернул код %d", response.StatusCode)
	}
	if err = json.Unmarshal(responseBody, resp); err != nil {
		logger.WithField("response_body", string(responseBody)).WithError(err).Error("ошибка сериализации ответа")
		return errors.Wrap(err, "ошибка сериализации ответа")
	}
	return nil
}

// statusOf результат вида {"status": "..."} означает ошибку или пустой результат
func statusOf(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	data := map[string]any{}
	if err := json.Unmarshal(trimmed, &data); err != nil || len(data) != 1 {
		return "", false
	}
	status, ok := data["status"].(string)
	return status, ok
}

func isEmptyStatus(err error, status string) bool {
	var rpcErr RPCError
	return errors.As(err, &rpcErr) && strings.EqualFold(rpcErr.Status, status)
}

func sessionCacheKey(conn Connection) string {
	return fmt.Sprintf("limesurvey:session:%s:%s", conn.ServerID, conn.Username)
}

// ConnectionOf параметры подключения сервера из БД
func ConnectionOf(server dbmodels.LimeSurveyServer) Connection {
	return Connection{
		ServerID: server.ID,
		BaseURL:  server.BaseURL,
		RPCPath:  server.RPCPath,
		Username: server.APIUsername,
		Password: server.APIPassword,
	}
}
