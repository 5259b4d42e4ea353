package importbatch

import (
	"bytes"
	"context"
	"time"

	"admission-backend/config"
	"admission-backend/db"
	candidatestore "admission-backend/lib/candidate/store"
	xlsexport "admission-backend/lib/export/xls"
	formtemplatestore "admission-backend/lib/form-template/store"
	importbatchstore "admission-backend/lib/import-batch/store"
	"admission-backend/lib/ingestion"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/lib/utils/lock"
	importbatchapimodels "admission-backend/models/api/import-batch"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrBatchNotFound    = errors.New("пакет импорта не найден")
	ErrTemplateNotFound = errors.New("шаблон анкеты не найден")
	ErrImportRunning    = errors.New("импорт по этой анкете уже выполняется")
	ErrEmptyFile        = errors.New("файл не загружен")
)

const lockWait = 5 * time.Second

type Provider interface {
	List(filter importbatchapimodels.ListFilter) ([]importbatchapimodels.ImportBatchView, int64, error)
	Get(id string) (*importbatchapimodels.ImportBatchView, error)
	// Report полный отчет по пакету в xlsx
	Report(id string) (*bytes.Buffer, error)
	ImportFromLimeSurvey(ctx context.Context, templateID string) (*importbatchapimodels.ImportBatchView, error)
	ImportFromXlsx(ctx context.Context, templateID string, data []byte) (*importbatchapimodels.ImportBatchView, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(
		importbatchstore.NewInstance(db.DB),
		candidatestore.NewInstance(db.DB),
		formtemplatestore.NewInstance(db.DB),
		ingestion.Instance,
		limesurveyclient.Instance,
		xlsexport.Instance,
		config.Conf.Ingestion.BatchErrorPreview,
	)
}

func NewInstance(store importbatchstore.Provider, candidateStore candidatestore.Provider, templateStore formtemplatestore.Provider,
	gateway ingestion.Provider, client limesurveyclient.Provider, xls xlsexport.Provider, errorPreview int) Provider {
	if errorPreview <= 0 {
		errorPreview = 20
	}
	return &impl{
		store:          store,
		candidateStore: candidateStore,
		templateStore:  templateStore,
		gateway:        gateway,
		client:         client,
		xls:            xls,
		errorPreview:   errorPreview,
	}
}

type impl struct {
	store          importbatchstore.Provider
	candidateStore candidatestore.Provider
	templateStore  formtemplatestore.Provider
	gateway        ingestion.Provider
	client         limesurveyclient.Provider
	xls            xlsexport.Provider
	errorPreview   int
}

func (i impl) List(filter importbatchapimodels.ListFilter) ([]importbatchapimodels.ImportBatchView, int64, error) {
	list, rowCount, err := i.store.List(filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]importbatchapimodels.ImportBatchView, 0, len(list))
	for _, rec := range list {
		result = append(result, rec.ToModel(i.errorPreview))
	}
	return result, rowCount, nil
}

func (i impl) Get(id string) (*importbatchapimodels.ImportBatchView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	view := rec.ToModel(i.errorPreview)
	return &view, nil
}

func (i impl) Report(id string) (*bytes.Buffer, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	candidates, err := i.candidateStore.ListByBatch(id)
	if err != nil {
		return nil, err
	}
	return i.xls.ExportBatchReport(*rec, candidates)
}

func (i impl) ImportFromLimeSurvey(ctx context.Context, templateID string) (*importbatchapimodels.ImportBatchView, error) {
	template, err := i.templateStore.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil || template.Server == nil {
		return nil, ErrTemplateNotFound
	}
	return i.run(ctx, templateID, ingestion.LimeSurveySource{
		Client:   i.client,
		Conn:     limesurveyclient.ConnectionOf(*template.Server),
		SurveyID: template.SurveyID,
	})
}

func (i impl) ImportFromXlsx(ctx context.Context, templateID string, data []byte) (*importbatchapimodels.ImportBatchView, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return i.run(ctx, templateID, ingestion.XlsxSource{Reader: i.xls, Data: data})
}

func (i impl) run(ctx context.Context, templateID string, source ingestion.ResponseSource) (*importbatchapimodels.ImportBatchView, error) {
	var batch *dbmodels.ImportBatch
	ok, err := lock.WithDelay(ctx, lock.ImportKey(templateID), lockWait, func() error {
		var importErr error
		batch, importErr = i.gateway.ImportBatch(ctx, templateID, source)
		return importErr
	})
	if !ok {
		return nil, ErrImportRunning
	}
	if batch == nil {
		return nil, err
	}
	if err != nil {
		log.
			WithError(err).
			WithField("batch_id", batch.ID).
			WithField("form_template_id", templateID).
			Warn("пакет импорта завершился с ошибкой")
	}
	view := batch.ToModel(i.errorPreview)
	return &view, err
}

func (i impl) get(id string) (*dbmodels.ImportBatch, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrBatchNotFound
	}
	return rec, nil
}
