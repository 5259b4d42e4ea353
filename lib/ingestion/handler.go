package ingestion

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"admission-backend/config"
	"admission-backend/db"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	candidatestore "admission-backend/lib/candidate/store"
	"admission-backend/lib/events"
	filestorage "admission-backend/lib/file-storage"
	formtemplatestore "admission-backend/lib/form-template/store"
	importbatchstore "admission-backend/lib/import-batch/store"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	mappingstore "admission-backend/lib/mapping/store"
	responseprocessor "admission-backend/lib/response-processor"
	"admission-backend/lib/utils/helpers"
	"admission-backend/models"
	ingestionapimodels "admission-backend/models/api/ingestion"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmitResult struct {
	Candidate *dbmodels.Candidate
	// Created false - ответ уже был обработан, возвращается прежняя карточка
	Created        bool
	MappingPending bool
	Diagnostics    []responseprocessor.FieldError
}

func (r SubmitResult) ToModel() ingestionapimodels.SubmitResultView {
	result := ingestionapimodels.SubmitResultView{
		Created:        r.Created,
		MappingPending: r.MappingPending,
		Diagnostics:    make([]ingestionapimodels.FieldErrorView, 0, len(r.Diagnostics)),
	}
	if r.Candidate != nil {
		result.CandidateID = r.Candidate.ID
	}
	for _, diag := range r.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, ingestionapimodels.FieldErrorView{
			QuestionCode: diag.QuestionCode,
			TargetField:  string(diag.TargetField),
			Kind:         string(diag.Kind),
			Message:      diag.Message,
		})
	}
	return result
}

type Provider interface {
	// Submit ответ из вебхука LimeSurvey
	Submit(ctx context.Context, token string, request ingestionapimodels.WebhookSubmission) (*SubmitResult, error)
	// ImportBatch пакетный импорт ответов шаблона. Ошибки отдельных ответов попадают в журнал пакета
	ImportBatch(ctx context.Context, templateID string, source ResponseSource) (*dbmodels.ImportBatch, error)
	// AutoImport импорт новых ответов с сервера LimeSurvey, nil - новых ответов нет
	AutoImport(ctx context.Context, templateID string, maxResponses int) (*dbmodels.ImportBatch, error)
	// Reprocess применяет проверенное сопоставление к ответам, сохраненным без него
	Reprocess(ctx context.Context, templateID string) (int, error)
}

var Instance Provider

const syncErrorLimit = 1000

func NewHandler() {
	Instance = NewInstance(db.DB, responseprocessor.Instance, limesurveyclient.Instance, filestorage.Instance, events.Instance, config.Conf.Ingestion.MaxAttachmentSize)
}

func NewInstance(DB *gorm.DB, processor responseprocessor.Provider, client limesurveyclient.Provider,
	sink filestorage.Provider, publisher events.Provider, maxAttachmentSize int64) Provider {
	if publisher == nil {
		publisher = events.NewInstance(nil, "")
	}
	if maxAttachmentSize <= 0 {
		maxAttachmentSize = responseprocessor.DefaultMaxAttachmentSize
	}
	return &impl{
		templateStore:     formtemplatestore.NewInstance(DB),
		mappingStore:      mappingstore.NewInstance(DB),
		candidateStore:    candidatestore.NewInstance(DB),
		stageStore:        candidatestagestore.NewInstance(DB),
		batchStore:        importbatchstore.NewInstance(DB),
		processor:         processor,
		client:            client,
		sink:              sink,
		publisher:         publisher,
		maxAttachmentSize: maxAttachmentSize,
	}
}

type impl struct {
	templateStore     formtemplatestore.Provider
	mappingStore      mappingstore.Provider
	candidateStore    candidatestore.Provider
	stageStore        candidatestagestore.Provider
	batchStore        importbatchstore.Provider
	processor         responseprocessor.Provider
	client            limesurveyclient.Provider
	sink              filestorage.Provider
	publisher         events.Provider
	maxAttachmentSize int64
}

// response один ответ анкеты, общий для вебхука и пакетного импорта
type response struct {
	id          string
	data        map[string]any
	submitDate  any
	attachments []ingestionapimodels.WebhookAttachment
	batchID     *string
}

func (i impl) Submit(ctx context.Context, token string, request ingestionapimodels.WebhookSubmission) (*SubmitResult, error) {
	surveyID := request.GetSurveyID()
	logger := log.
		WithField("survey_id", surveyID).
		WithField("response_id", request.ResponseID.String())
	if surveyID == "" {
		return nil, MissingFieldsError{Keys: []string{"form_id"}}
	}
	template, err := i.resolveTemplate(surveyID, token)
	if err != nil {
		logger.WithError(err).Warn("вебхук отклонен")
		return nil, err
	}
	logger = logger.WithField("form_template_id", template.ID)
	if missing := request.MissingKeys(); len(missing) > 0 {
		return nil, MissingFieldsError{Keys: missing}
	}
	data, err := decodeSubmission(request.ResponseData)
	if err != nil {
		return nil, err
	}
	if missing := missingResponseKeys(data, template.GetRequiredResponseKeys()); len(missing) > 0 {
		return nil, MissingFieldsError{Keys: missing}
	}
	var submitDate any
	if request.SubmitDate != "" {
		submitDate = request.SubmitDate
	}
	return i.ingest(ctx, logger, *template, response{
		id:          request.ResponseID.String(),
		data:        data,
		submitDate:  submitDate,
		attachments: request.Attachments,
	}, true)
}

func (i impl) ImportBatch(ctx context.Context, templateID string, source ResponseSource) (*dbmodels.ImportBatch, error) {
	template, err := i.templateStore.GetByID(templateID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения шаблона анкеты")
	}
	if template == nil {
		return nil, FormNotFoundError{SurveyID: templateID}
	}
	mapping, err := i.mappingStore.GetByTemplate(templateID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения сопоставления")
	}
	if mapping == nil || !mapping.IsValidated() {
		return nil, responseprocessor.ErrNoValidatedMapping
	}

	batch := &dbmodels.ImportBatch{
		FormTemplateID: templateID,
		Source:         source.Kind(),
		State:          models.ImportBatchRunning,
		StartedAt:      time.Now(),
	}
	if err = i.batchStore.Create(batch); err != nil {
		return nil, errors.Wrap(err, "ошибка создания пакета импорта")
	}
	logger := log.
		WithField("batch_id", batch.ID).
		WithField("form_template_id", templateID).
		WithField("survey_id", template.SurveyID)

	responses, err := source.Responses(ctx)
	if err != nil {
		fetchErr := ResponsesFetchError{Err: err}
		logger.WithError(err).Error("ошибка получения ответов для пакетного импорта")
		batch.Fail(time.Now(), fetchErr)
		i.finishBatch(ctx, logger, batch, fetchErr)
		return batch, fetchErr
	}

	batch.TotalCount = len(responses)
	for _, item := range responses {
		responseID := ResponseIDOf(item)
		if responseID == "" {
			batch.AddError("-", errors.New("нет идентификатора ответа"))
			continue
		}
		result, err := i.ingest(ctx, logger.WithField("response_id", responseID), *template, response{
			id:         responseID,
			data:       item,
			submitDate: submitDateOf(item),
			batchID:    &batch.ID,
		}, false)
		switch {
		case err != nil:
			batch.AddError(responseID, err)
		case !result.Created:
			batch.SkippedCount++
		default:
			batch.ImportedCount++
		}
	}
	batch.Finish(time.Now())
	i.finishBatch(ctx, logger, batch, nil)
	logger.
		WithField("imported", batch.ImportedCount).
		WithField("skipped", batch.SkippedCount).
		WithField("errors", batch.ErrorCount).
		Info("пакетный импорт завершен")
	return batch, nil
}

func (i impl) AutoImport(ctx context.Context, templateID string, maxResponses int) (*dbmodels.ImportBatch, error) {
	template, err := i.templateStore.GetByID(templateID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения шаблона анкеты")
	}
	if template == nil {
		return nil, FormNotFoundError{SurveyID: templateID}
	}
	if template.Server == nil {
		return nil, errors.New("сервер LimeSurvey шаблона не найден")
	}
	if i.client == nil {
		return nil, errors.New("клиент LimeSurvey не настроен")
	}
	logger := log.
		WithField("form_template_id", templateID).
		WithField("survey_id", template.SurveyID)

	responses, err := i.client.ExportResponses(ctx, limesurveyclient.ConnectionOf(*template.Server), template.SurveyID)
	if err != nil {
		fetchErr := ResponsesFetchError{Err: err}
		i.updateSyncStatus(logger, templateID, fetchErr)
		return nil, fetchErr
	}
	known, err := i.candidateStore.ResponseIDs(templateID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения обработанных ответов")
	}
	fresh := []map[string]any{}
	for _, item := range responses {
		if known[ResponseIDOf(item)] {
			continue
		}
		fresh = append(fresh, item)
		if maxResponses > 0 && len(fresh) >= maxResponses {
			break
		}
	}
	if len(fresh) == 0 {
		logger.Debug("новых ответов нет")
		return nil, nil
	}
	return i.ImportBatch(ctx, templateID, StaticSource{Source: models.ImportSourceWorker, List: fresh})
}

func (i impl) Reprocess(ctx context.Context, templateID string) (int, error) {
	logger := log.WithField("form_template_id", templateID)
	mapping, err := i.mappingStore.GetByTemplate(templateID)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения сопоставления")
	}
	if mapping == nil || !mapping.IsValidated() {
		return 0, responseprocessor.ErrNoValidatedMapping
	}
	pending, err := i.candidateStore.ListPending(templateID)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения ответов без сопоставления")
	}
	count := 0
	for idx := range pending {
		candidate := &pending[idx]
		candidateLogger := logger.
			WithField("candidate_id", candidate.ID).
			WithField("response_id", candidate.ResponseID)
		processed, err := i.processor.Process(ctx, mapping, candidate.GetResponseData())
		if err != nil {
			candidateLogger.WithError(err).Warn("ошибка повторной обработки ответа")
			continue
		}
		diagnostics, columns := applyFields(candidate, mapping, processed)
		for _, diag := range diagnostics {
			candidateLogger.
				WithField("question_code", diag.QuestionCode).
				WithField("line_id", diag.LineID).
				Warn(diag.Message)
		}
		candidate.MappingPending = false
		// статус и проверки, измененные оператором, не перезаписываются
		columns = append(columns, "mapping_pending", "updated_at")
		if err = i.candidateStore.UpdateColumns(candidate, columns); err != nil {
			candidateLogger.WithError(err).Error("ошибка сохранения кандидата")
			continue
		}
		for _, diag := range i.reprocessAttachments(ctx, candidateLogger, candidate, mapping, processed.Attachments) {
			candidateLogger.
				WithField("question_code", diag.QuestionCode).
				WithField("line_id", diag.LineID).
				Warn(diag.Message)
		}
		count++
	}
	if count > 0 {
		logger.WithField("count", count).Info("ответы обработаны по проверенному сопоставлению")
	}
	return count, nil
}

func (i impl) resolveTemplate(surveyID, token string) (*dbmodels.FormTemplate, error) {
	templates, err := i.templateStore.ListBySurveyID(surveyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения шаблона анкеты")
	}
	if len(templates) == 0 {
		return nil, FormNotFoundError{SurveyID: surveyID}
	}
	for idx := range templates {
		server := templates[idx].Server
		if server == nil || server.WebhookToken == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(server.WebhookToken), []byte(token)) == 1 {
			return &templates[idx], nil
		}
	}
	return nil, UnauthorizedError{SurveyID: surveyID}
}

func (i impl) ingest(ctx context.Context, logger *log.Entry, template dbmodels.FormTemplate, resp response, allowPending bool) (*SubmitResult, error) {
	existing, err := i.candidateStore.GetByResponse(template.ID, resp.id)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка поиска кандидата")
	}
	if existing != nil {
		logger.Debug("ответ уже обработан")
		return &SubmitResult{Candidate: existing}, nil
	}
	mapping, err := i.mappingStore.GetByTemplate(template.ID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения сопоставления")
	}
	archive, err := json.Marshal(resp.data)
	if err != nil {
		return nil, responseprocessor.MalformedPayloadError{Reason: err.Error()}
	}

	candidate := &dbmodels.Candidate{
		FormTemplateID: template.ID,
		ResponseID:     resp.id,
		ImportBatchID:  resp.batchID,
		Status:         models.CandidateStatusNew,
		ResponseData:   datatypes.JSON(archive),

		EvaluationStatus: models.EvaluationPending,
	}
	stage, err := i.stageStore.GetDefault(template.ID)
	if err != nil {
		logger.WithError(err).Warn("ошибка получения этапа по умолчанию")
	} else if stage != nil {
		candidate.StageID = &stage.ID
	}
	if resp.submitDate != nil {
		if submitted, err := models.CoerceDate(resp.submitDate); err == nil {
			candidate.SubmissionDate = &submitted
		}
	}
	if candidate.SubmissionDate == nil {
		now := time.Now()
		candidate.SubmissionDate = &now
	}

	result := &SubmitResult{Candidate: candidate, Created: true}
	var processed *responseprocessor.Result
	if mapping == nil || !mapping.IsValidated() {
		if !allowPending {
			return nil, responseprocessor.ErrNoValidatedMapping
		}
		// ответ сохраняется как есть и обрабатывается после проверки сопоставления
		candidate.MappingPending = true
		result.MappingPending = true
	} else {
		processed, err = i.processor.Process(ctx, mapping, resp.data)
		if err != nil {
			return nil, err
		}
		result.Diagnostics = append(result.Diagnostics, processed.Errors...)
		diagnostics, _ := applyFields(candidate, mapping, processed)
		result.Diagnostics = append(result.Diagnostics, diagnostics...)
	}

	if err = i.candidateStore.Create(candidate); err != nil {
		if !db.IsDuplicateKeyError(err) {
			return nil, errors.Wrap(err, "ошибка создания кандидата")
		}
		existing, getErr := i.candidateStore.GetByResponse(template.ID, resp.id)
		if getErr != nil {
			return nil, errors.Wrap(getErr, "ошибка поиска кандидата")
		}
		if existing == nil {
			return nil, errors.Wrap(err, "ошибка создания кандидата")
		}
		logger.Debug("ответ обработан параллельным запросом")
		return &SubmitResult{Candidate: existing}, nil
	}
	logger = logger.WithField("candidate_id", candidate.ID)

	var descriptors []responseprocessor.AttachmentDescriptor
	if processed != nil {
		descriptors = processed.Attachments
	}
	result.Diagnostics = append(result.Diagnostics, i.storeAttachments(ctx, logger, candidate, mapping, descriptors, resp.attachments)...)
	for _, diag := range result.Diagnostics {
		logger.
			WithField("question_code", diag.QuestionCode).
			WithField("line_id", diag.LineID).
			WithField("kind", diag.Kind).
			Warn(diag.Message)
	}

	if err = i.templateStore.AddCreated(template.ID, 1, time.Now()); err != nil {
		logger.WithError(err).Warn("ошибка обновления счетчика кандидатов шаблона")
	}
	i.publish(ctx, logger, events.TypeCandidateCreated, candidate.ID, map[string]any{
		"candidate_id":     candidate.ID,
		"form_template_id": template.ID,
		"survey_id":        template.SurveyID,
		"response_id":      candidate.ResponseID,
		"mapping_pending":  candidate.MappingPending,
		"import_batch_id":  candidate.ImportBatchID,
	})
	logger.Info("кандидат создан из ответа анкеты")
	return result, nil
}

// storeAttachments сохраняет вложения в хранилище. Ошибки отдельных файлов не прерывают обработку ответа
func (i impl) storeAttachments(ctx context.Context, logger *log.Entry, candidate *dbmodels.Candidate, mapping *dbmodels.FormMapping,
	descriptors []responseprocessor.AttachmentDescriptor, uploaded []ingestionapimodels.WebhookAttachment) []responseprocessor.FieldError {
	diagnostics := []responseprocessor.FieldError{}
	attachmentError := func(desc responseprocessor.AttachmentDescriptor, message string) {
		diagnostics = append(diagnostics, responseprocessor.FieldError{
			QuestionCode: desc.QuestionCode,
			LineID:       desc.LineID,
			TargetField:  desc.TargetField,
			Kind:         responseprocessor.FieldErrorAttachment,
			Message:      message,
		})
	}

	for _, upload := range uploaded {
		content, err := decodeContent(upload.Content)
		if err != nil {
			attachmentError(responseprocessor.AttachmentDescriptor{QuestionCode: upload.QuestionCode, Name: upload.Name},
				"некорректное содержимое файла "+upload.Name)
			continue
		}
		if idx := matchDescriptor(descriptors, upload); idx >= 0 {
			descriptors[idx].Content = content
			descriptors[idx].Size = int64(len(content))
			if descriptors[idx].MimeType == "" {
				descriptors[idx].MimeType = uploadMimeType(upload)
			}
			continue
		}
		desc := responseprocessor.AttachmentDescriptor{
			QuestionCode: upload.QuestionCode,
			Name:         upload.Name,
			MimeType:     uploadMimeType(upload),
			Size:         int64(len(content)),
			Content:      content,
		}
		if line := attachmentLineOf(mapping, upload.QuestionCode); line != nil {
			desc.LineID = line.ID
			desc.TargetField = line.TargetField
		}
		descriptors = append(descriptors, desc)
	}

	for _, desc := range descriptors {
		if err := responseprocessor.CheckAttachment(desc, i.maxAttachmentSize); err != nil {
			attachmentError(desc, err.Error())
			continue
		}
		rec := dbmodels.CandidateAttachment{
			CandidateID:  candidate.ID,
			QuestionCode: desc.QuestionCode,
			TargetField:  desc.TargetField,
			Name:         desc.Name,
			MimeType:     desc.MimeType,
			Size:         desc.Size,
		}
		if len(desc.Content) > 0 {
			if i.sink == nil {
				attachmentError(desc, filestorage.ErrNotConfigured.Error())
				continue
			}
			objectKey, err := i.sink.Store(ctx, candidate.ID, desc.Name, desc.Content, desc.MimeType)
			if err != nil {
				logger.WithError(err).WithField("question_code", desc.QuestionCode).Error("ошибка сохранения вложения")
				attachmentError(desc, err.Error())
				continue
			}
			rec.ObjectKey = objectKey
		}
		if err := i.candidateStore.AddAttachment(&rec); err != nil {
			logger.WithError(err).WithField("question_code", desc.QuestionCode).Error("ошибка сохранения вложения")
			attachmentError(desc, "ошибка сохранения вложения")
			continue
		}
		candidate.Attachments = append(candidate.Attachments, rec)
	}
	return diagnostics
}

// reprocessAttachments привязывает ранее загруженные файлы к строкам проверенного сопоставления
// и сохраняет вложения из ответа, которых у кандидата еще нет
func (i impl) reprocessAttachments(ctx context.Context, logger *log.Entry, candidate *dbmodels.Candidate, mapping *dbmodels.FormMapping,
	descriptors []responseprocessor.AttachmentDescriptor) []responseprocessor.FieldError {
	stored := map[string]bool{}
	// незанятые файлы по вопросу: описание из ответа могло назвать файл иначе, чем загрузка
	spare := map[string]int{}
	for idx := range candidate.Attachments {
		att := &candidate.Attachments[idx]
		stored[att.QuestionCode+"/"+att.Name] = true
		spare[att.QuestionCode]++
		if att.TargetField != "" {
			continue
		}
		line := attachmentLineOf(mapping, att.QuestionCode)
		if line == nil {
			continue
		}
		if err := i.candidateStore.UpdateAttachmentTarget(att.ID, line.TargetField); err != nil {
			logger.WithError(err).WithField("attachment_id", att.ID).Error("ошибка привязки вложения")
			continue
		}
		att.TargetField = line.TargetField
	}
	fresh := []responseprocessor.AttachmentDescriptor{}
	for _, desc := range descriptors {
		if stored[desc.QuestionCode+"/"+desc.Name] || (desc.Ref != "" && stored[desc.QuestionCode+"/"+desc.Ref]) {
			spare[desc.QuestionCode]--
			continue
		}
		fresh = append(fresh, desc)
	}
	remaining := fresh[:0]
	for _, desc := range fresh {
		if spare[desc.QuestionCode] > 0 {
			spare[desc.QuestionCode]--
			continue
		}
		remaining = append(remaining, desc)
	}
	fresh = remaining
	if len(fresh) == 0 {
		return nil
	}
	return i.storeAttachments(ctx, logger, candidate, mapping, fresh, nil)
}

func (i impl) finishBatch(ctx context.Context, logger *log.Entry, batch *dbmodels.ImportBatch, fetchErr error) {
	if err := i.batchStore.Save(batch); err != nil {
		logger.WithError(err).Error("ошибка сохранения пакета импорта")
	}
	i.updateSyncStatus(logger, batch.FormTemplateID, fetchErr)
	i.publish(ctx, logger, events.TypeImportBatchFinished, batch.ID, map[string]any{
		"batch_id":         batch.ID,
		"form_template_id": batch.FormTemplateID,
		"source":           batch.Source,
		"state":            batch.State,
		"total":            batch.TotalCount,
		"imported":         batch.ImportedCount,
		"skipped":          batch.SkippedCount,
		"errors":           batch.ErrorCount,
	})
}

func (i impl) updateSyncStatus(logger *log.Entry, templateID string, fetchErr error) {
	updMap := map[string]interface{}{
		"sync_status": models.SyncStatusSynced,
		"sync_error":  "",
	}
	if fetchErr != nil {
		updMap["sync_status"] = models.SyncStatusError
		updMap["sync_error"] = helpers.Truncate(fetchErr.Error(), syncErrorLimit)
	}
	if err := i.templateStore.Update(templateID, updMap); err != nil {
		logger.WithError(err).Warn("ошибка обновления статуса синхронизации шаблона")
	}
}

func (i impl) publish(ctx context.Context, logger *log.Entry, eventType, key string, data map[string]any) {
	if err := i.publisher.Publish(ctx, eventType, key, data); err != nil {
		logger.WithError(err).WithField("event_type", eventType).Warn("событие не отправлено")
	}
}

// applyFields записывает значения в карточку. Значения, не приводимые к типу поля, пропускаются.
// Возвращает также колонки, в которые попали значения
func applyFields(candidate *dbmodels.Candidate, mapping *dbmodels.FormMapping, processed *responseprocessor.Result) ([]responseprocessor.FieldError, []string) {
	diagnostics := []responseprocessor.FieldError{}
	columns := []string{}
	written := map[string]bool{}
	fields := make([]models.TargetField, 0, len(processed.FieldValues))
	for field := range processed.FieldValues {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(a, b int) bool { return fields[a] < fields[b] })
	for _, field := range fields {
		if err := candidate.SetField(field, processed.FieldValues[field]); err != nil {
			diag := responseprocessor.FieldError{
				TargetField: field,
				Kind:        responseprocessor.FieldErrorCoercion,
				Message:     err.Error(),
			}
			if line := writerLineOf(mapping, field); line != nil {
				diag.QuestionCode = line.QuestionCode
				diag.LineID = line.ID
			}
			diagnostics = append(diagnostics, diag)
			continue
		}
		if column := dbmodels.FieldColumn(field); !written[column] {
			written[column] = true
			columns = append(columns, column)
		}
	}
	return diagnostics, columns
}

// writerLineOf строка, значение которой попало в поле: проверенная строка с наибольшим sequence
func writerLineOf(mapping *dbmodels.FormMapping, field models.TargetField) *dbmodels.FormMappingLine {
	var result *dbmodels.FormMappingLine
	for idx := range mapping.Lines {
		line := &mapping.Lines[idx]
		if !line.IsValidated() || line.TargetField != field {
			continue
		}
		if result == nil || line.Sequence >= result.Sequence {
			result = line
		}
	}
	return result
}

func attachmentLineOf(mapping *dbmodels.FormMapping, questionCode string) *dbmodels.FormMappingLine {
	if mapping == nil || !mapping.IsValidated() || questionCode == "" {
		return nil
	}
	for idx := range mapping.Lines {
		line := &mapping.Lines[idx]
		if line.QuestionCode == questionCode && line.IsAttachment && line.IsValidated() {
			return line
		}
	}
	return nil
}

// matchDescriptor описание файла из ответа, к которому относится загруженное содержимое
func matchDescriptor(descriptors []responseprocessor.AttachmentDescriptor, upload ingestionapimodels.WebhookAttachment) int {
	fallback := -1
	for idx, desc := range descriptors {
		if len(desc.Content) > 0 || upload.QuestionCode == "" || desc.QuestionCode != upload.QuestionCode {
			continue
		}
		if desc.Name == upload.Name || desc.Ref == upload.Name {
			return idx
		}
		if fallback < 0 {
			fallback = idx
		}
	}
	return fallback
}

func uploadMimeType(upload ingestionapimodels.WebhookAttachment) string {
	if mimeType := responseprocessor.NormalizeMimeType(upload.GetMimeType()); mimeType != "" {
		return mimeType
	}
	return responseprocessor.GuessMimeType(upload.Name, "")
}

func decodeContent(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	// data:application/pdf;base64,....
	if strings.HasPrefix(content, "data:") {
		if idx := strings.Index(content, ","); idx >= 0 {
			content = content[idx+1:]
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(content)
	}
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, errors.New("пустой файл")
	}
	return decoded, nil
}

// decodeSubmission response_data бывает объектом или строкой с json-объектом
func decodeSubmission(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, responseprocessor.MalformedPayloadError{Reason: err.Error()}
		}
		return responseprocessor.DecodeResponse(encoded)
	}
	return responseprocessor.DecodeResponse(raw)
}

func missingResponseKeys(data map[string]any, required []string) []string {
	missing := []string{}
	for _, key := range required {
		if value, ok := data[key]; !ok || models.IsEmptyValue(value) {
			missing = append(missing, key)
		}
	}
	return missing
}
